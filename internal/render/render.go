// Package render maps a persisted widget state document to exactly one of
// the four visual modes the widget can show.
package render

import (
	"github.com/snapvault/widgetsync/internal/models"
)

// Kind identifies the visual mode.
type Kind int

const (
	// KindLoading shows the progress indicator. Wins over everything else.
	KindLoading Kind = iota
	// KindError shows the error banner; only reached when no items are
	// cached, otherwise content wins and carries the banner.
	KindError
	// KindEmpty shows the "nothing to show" placeholder.
	KindEmpty
	// KindContent shows the item at the current index.
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindError:
		return "error"
	case KindEmpty:
		return "empty"
	case KindContent:
		return "content"
	}
	return "unknown"
}

// State is the resolved view for one widget instance.
type State struct {
	Kind Kind
	// Item is set for KindContent.
	Item *models.RemindItem
	// Banner carries the error message: the whole view for KindError, a
	// secondary overlay for KindContent when stale data is still shown.
	Banner string
}

// Render resolves the mode with fixed precedence: loading, then content,
// then error, then empty. Cached items always win over an error; the error
// message rides along as a banner on top of the content.
func Render(st models.InstanceState) State {
	if st.IsLoading {
		return State{Kind: KindLoading}
	}

	if len(st.RemindItems) > 0 {
		item, _ := st.CurrentItem()
		return State{Kind: KindContent, Item: &item, Banner: st.ErrorMessage}
	}

	if st.ErrorMessage != "" {
		return State{Kind: KindError, Banner: st.ErrorMessage}
	}

	return State{Kind: KindEmpty}
}

// Notifier is how the engine tells the host platform that an instance's
// document changed and its view should be rebuilt.
type Notifier interface {
	Invalidate(instanceID string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(instanceID string)

func (f NotifierFunc) Invalidate(instanceID string) { f(instanceID) }
