package services

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// ModalView is what the page needs to draw the scheduling overlay.
type ModalView struct {
	Open     bool   `json:"open"`
	Ready    bool   `json:"ready"`
	FrameURL string `json:"frameUrl"`
}

// ModalHost toggles the overlay that holds the scheduling frame. It has no
// say over confirmations; closing never cancels one.
type ModalHost struct {
	loader   *WidgetLoader
	frameURL string

	mu   sync.Mutex
	open bool
}

func NewModalHost(loader *WidgetLoader, frameURL string) *ModalHost {
	return &ModalHost{loader: loader, frameURL: frameURL}
}

// BuildFrameURL points the frame at a scheduling link and tells the provider
// where to send the browser once the booking completes.
func BuildFrameURL(frameBase, link, redirectBack, profileID string) (string, error) {
	u, err := url.Parse(frameBase)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(link, "/")

	q := u.Query()
	q.Set("embed", "true")
	q.Set("redirect_url", redirectBack)
	if profileID != "" {
		q.Set("metadata[profileId]", profileID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (h *ModalHost) Open(ctx context.Context) ModalView {
	h.loader.EnsureLoaded(ctx)

	h.mu.Lock()
	h.open = true
	h.mu.Unlock()
	return h.View()
}

func (h *ModalHost) Close() ModalView {
	h.mu.Lock()
	h.open = false
	h.mu.Unlock()
	return h.View()
}

// View reports the modal as ready only after the widget script has loaded.
func (h *ModalHost) View() ModalView {
	h.mu.Lock()
	open := h.open
	h.mu.Unlock()
	return ModalView{
		Open:     open,
		Ready:    h.loader.IsLoaded(),
		FrameURL: h.frameURL,
	}
}
