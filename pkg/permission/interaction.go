package permission

// InteractionType identifies a mutating (or view-only) action a user may
// attempt. The set is closed: handlers construct values from these constants
// only, never from raw request input.
type InteractionType string

const (
	InteractionViewContent      InteractionType = "view_content"
	InteractionPublishPost      InteractionType = "publish_post"
	InteractionPublishAnonymous InteractionType = "publish_anonymous"
	InteractionComment          InteractionType = "comment"
	InteractionSendMessage      InteractionType = "send_message"
	InteractionCreateReview     InteractionType = "create_review"
	InteractionPublishStoreItem InteractionType = "publish_store_item"
	InteractionReact            InteractionType = "react"
)

// Requirement describes what a user must have completed before an
// interaction is allowed.
type Requirement struct {
	NeedsEmail    bool
	NeedsUsername bool
}

// requirements is the static policy table. It is never mutated at runtime.
var requirements = map[InteractionType]Requirement{
	InteractionViewContent:      {NeedsEmail: false, NeedsUsername: false},
	InteractionPublishAnonymous: {NeedsEmail: true, NeedsUsername: false},
	InteractionPublishPost:      {NeedsEmail: true, NeedsUsername: true},
	InteractionComment:          {NeedsEmail: true, NeedsUsername: true},
	InteractionSendMessage:      {NeedsEmail: true, NeedsUsername: true},
	InteractionCreateReview:     {NeedsEmail: true, NeedsUsername: true},
	InteractionPublishStoreItem: {NeedsEmail: true, NeedsUsername: true},
	InteractionReact:            {NeedsEmail: true, NeedsUsername: true},
}

// RequirementFor looks up the effective requirement for an interaction.
// Publishing a post anonymously only needs a verified email: the username
// requirement is waived so the post can go out without a public identity.
// ok is false for an interaction type not in the table.
func RequirementFor(interaction InteractionType, anonymous bool) (Requirement, bool) {
	req, ok := requirements[interaction]
	if !ok {
		return Requirement{}, false
	}

	if interaction == InteractionPublishPost && anonymous {
		return Requirement{NeedsEmail: true, NeedsUsername: false}, true
	}

	return req, true
}

// Interactions returns all known interaction types. Useful for exhaustive
// policy tests and for validating client-supplied action names.
func Interactions() []InteractionType {
	types := make([]InteractionType, 0, len(requirements))
	for it := range requirements {
		types = append(types, it)
	}
	return types
}

// Known reports whether the interaction type is part of the closed set.
func Known(interaction InteractionType) bool {
	_, ok := requirements[interaction]
	return ok
}
