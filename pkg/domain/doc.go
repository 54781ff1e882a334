/*
Package domain contains the core domain models for the Quill assistant.

It defines the entities that flow through a transformation: the selection read from
the document, the action the user asked for, the request sent to the transformation
service, and the single request state owned by the orchestrator. This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - SelectionRange: A pair of offsets into the document's linear text.
  - ActionKind: The closed set of transformations (rewrite, summarize, grammar).
  - TransformationRequest / TransformationResponse: The wire contract.
  - RequestState: The lifecycle cell (Idle, Loading, Succeeded, Failed).
  - Notice: A message for the user-notice channel.
*/
package domain
