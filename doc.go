/*
Package quill applies AI text transformations to the selection of a document.

A user selects a span of text and picks an action (rewrite, summarize or fix
grammar). Quill extracts the selection as plain text, sends it to a
transformation service over HTTP, and inserts the returned text at the
selection, while keeping track of a single request state: Idle, Loading,
Succeeded or Failed.

# Concept

The document is a port. Any editor that can report its selection, read text
between two positions and insert content at the cursor can be driven by
Quill. The package ships an in-memory document for tests, CLIs and agents.

At most one transformation is outstanding at a time. A trigger that arrives
while a request is Loading is refused, never queued. Every failure is
surfaced through the Presenter as a notice and the state always returns to
Idle.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/quill"
		"github.com/aretw0/quill/pkg/adapters/memory"
		"github.com/aretw0/quill/pkg/domain"
	)

	func main() {
		doc := memory.NewDocument("teh cat sat on teh mat")
		if err := doc.SelectText("teh cat sat on teh mat"); err != nil {
			log.Fatal(err)
		}

		// Talks to http://localhost:8000/api/ai by default.
		assistant := quill.Connect("", doc)
		if err := assistant.Invoke(context.Background(), domain.ActionFixGrammar); err != nil {
			log.Fatal(err)
		}
		fmt.Println(doc.Text())
	}

The reference transformation service lives in pkg/service and is served by
the "quill serve" command.
*/
package quill
