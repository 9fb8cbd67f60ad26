/*
Package pathquiz is a multi-step quiz engine that recommends a learning path.

A quiz is a fixed sequence of single-choice steps. Each accepted answer plays a short
visual transition (fade out, swap, fade in) during which further input is ignored. After
the last step, a small decision table maps the answers to a result whose recommended
courses are looked up in a catalog; unknown courses are shown as "Course #N".

# Architecture

The engine is hexagonal. The domain package holds the definition, session and decision
table; ports declare the session store, the course catalog and the distributed locker;
adapters implement them (memory, file, redis, sqlite) and expose sessions over HTTP,
MCP and a terminal UI.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/pathquiz"
	)

	func main() {
		ctx := context.Background()
		quiz, err := pathquiz.New(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer quiz.Close()

		d, _ := quiz.Create(ctx)
		fmt.Println(d.QuestionText)

		// Select option 2 on step 0. The directive is locked until the transition settles.
		d, accepted, _ := quiz.Select(ctx, d.SessionID, 0, 1)
		fmt.Println(accepted, d.LockHeld)
	}
*/
package pathquiz
