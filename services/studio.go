// services/studio.go

package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Abh1nav004/Really/cartstore"
	"github.com/Abh1nav004/Really/clock"
)

// DefaultDesignDelay is how long a simulated generation takes.
const DefaultDesignDelay = 2 * time.Second

// Design is a generated design preview.
type Design struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

var placeholderDesigns = []Design{
	{ID: 1, URL: "https://via.placeholder.com/300x400/333/fff?text=Design+1"},
	{ID: 2, URL: "https://via.placeholder.com/300x400/555/fff?text=Design+2"},
	{ID: 3, URL: "https://via.placeholder.com/300x400/777/fff?text=Design+3"},
}

// DesignStudio simulates design generation from a text prompt.
type DesignStudio struct {
	clock clock.Clock
	delay time.Duration
	log   logrus.FieldLogger
}

// NewDesignStudio constructor. A nil clock means the real one.
func NewDesignStudio(c clock.Clock, delay time.Duration, log logrus.FieldLogger) *DesignStudio {
	if c == nil {
		c = clock.Real{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DesignStudio{clock: c, delay: delay, log: log.WithField("component", "studio")}
}

// Generate waits out the simulated delay and returns three previews. It
// gives up when ctx ends.
func (d *DesignStudio) Generate(ctx context.Context, prompt string) ([]Design, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.Wrap(cartstore.ErrInvalidInput, "design prompt is required")
	}

	ready := make(chan struct{})
	t := d.clock.AfterFunc(d.delay, func() { close(ready) })
	select {
	case <-ready:
	case <-ctx.Done():
		t.Stop()
		return nil, errors.WithStack(ctx.Err())
	}

	d.log.WithField("prompt", prompt).Debug("designs generated")
	return append([]Design(nil), placeholderDesigns...), nil
}

type designRequest struct {
	Prompt string `json:"prompt"`
}

type designsView struct {
	Designs []Design `json:"designs"`
}

func (s *Server) generateDesignsHandler(w http.ResponseWriter, r *http.Request) {
	var req designRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.Log, err)
		return
	}
	r, span := s.startSpan(r, "GenerateDesigns", attribute.Int("studio.prompt_length", len(req.Prompt)))
	defer span.End()

	designs, err := s.Studio.Generate(r.Context(), req.Prompt)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.designsCreated.Add(r.Context(), 1)
	writeJSON(w, http.StatusOK, designsView{Designs: designs})
}
