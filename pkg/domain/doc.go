/*
Package domain contains the core models of the pathquiz engine.

It defines the static quiz definition, the per-user session snapshot, the directives
handed to presenters, and the pure result decision table. The package has no I/O and
no dependency on storage or transport, so every rule here can be tested in isolation.

# Key Entities

  - QuizDefinition: ordered steps, results, decision rules and transition timing.
  - Session: the serializable snapshot of one user's progress through the quiz.
  - Directive: what a presenter should render after each accepted (or rejected) input.
  - TransitionEvent: the staged visual transition phases (started, swap, settled).
*/
package domain
