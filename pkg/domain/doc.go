/*
Package domain contains the core domain models of the onboarding state machine.

It defines the question graph entities, the per-conversation Session, the inbound Events
and the render Instructions handed to transports. This package is kept pure and free of
external dependencies like I/O or persistence.

# Key Entities

  - QuestionNode: One step of the flow, with its prompt and ordered answers.
  - Session: The runtime snapshot of one conversation (current node, previous node, trail).
  - Event: An inbound command or free-text message from a conversation.
  - Instruction: What the transport should show (Welcome, Prompt, Reprompt, Completion).
*/
package domain
