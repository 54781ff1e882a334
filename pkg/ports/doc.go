/*
Package ports defines the driven ports (interfaces) for the Quill assistant.

These interfaces decouple the transformation lifecycle from the concrete rich-text
engine, the transport to the transformation service, and the presentation layer.

# Key Interfaces

  - Document: Selection query, text slicing and insertion (the rich-text engine).
  - Transformer: Submits a TransformationRequest to the transformation service.
  - Presenter: Busy signal and user-notice channel.
  - Generator: The model backend used by the reference transformation service.
  - ResultCache: Optional memoization of generated results inside the service.
*/
package ports
