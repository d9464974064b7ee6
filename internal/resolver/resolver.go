// Package resolver turns finalized utterances into terminal actions.
package resolver

import (
	"strings"

	"github.com/voxctl/voxctl/internal/segment"
	"github.com/voxctl/voxctl/internal/trigger"
)

// ResolvedCommand pairs an action with the utterance it came from.
// Immutable once produced.
type ResolvedCommand struct {
	Action trigger.Action
	Source segment.Utterance
}

// Resolver matches utterances against a trigger vocabulary.
type Resolver struct {
	vocab *trigger.Vocabulary
}

// New creates a resolver over the given vocabulary.
func New(vocab *trigger.Vocabulary) *Resolver {
	return &Resolver{vocab: vocab}
}

// Resolve maps one utterance to exactly one command. Trigger phrases match
// only on whole-utterance equality after normalization; a trigger phrase
// embedded in longer dictated text ("please press enter now") is NOT
// decomposed - the whole utterance becomes literal text. Anything that
// matches no trigger is wrapped as InsertText with the trimmed original
// text, punctuation intact.
func (r *Resolver) Resolve(u segment.Utterance) ResolvedCommand {
	normalized := trigger.Normalize(u.Text)

	if action, ok := r.vocab.Resolve(normalized); ok {
		return ResolvedCommand{Action: action, Source: u}
	}

	return ResolvedCommand{
		Action: trigger.Action{Kind: trigger.KindInsertText, Payload: strings.TrimSpace(u.Text)},
		Source: u,
	}
}
