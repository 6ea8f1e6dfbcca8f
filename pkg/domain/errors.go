package domain

import "errors"

// ErrSessionNotFound is returned by session backends when a conversation has no stored state.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownNode is reported when a node id cannot be resolved in the graph.
var ErrUnknownNode = errors.New("unknown node")

// ErrNoMatchingAnswer is reported when inbound text matches none of the current answers.
var ErrNoMatchingAnswer = errors.New("no matching answer")

// ErrSessionCorrupted is reported when a stored session references a node the graph does not have.
var ErrSessionCorrupted = errors.New("session references a missing node")

// ErrUnknownCommand is reported when a command has no handler.
var ErrUnknownCommand = errors.New("unknown command")
