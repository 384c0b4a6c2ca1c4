package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/itchan-dev/emojiprofile/shared/domain"
	"github.com/itchan-dev/emojiprofile/shared/utils"
)

type emojisResponse struct {
	Emojis []string `json:"emojis"`
}

// Moods returns the emoji the backend advertises on /emojis.
func (c *APIClient) Moods(ctx context.Context) ([]domain.Mood, error) {
	resp, err := c.do(ctx, http.MethodGet, "/emojis", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var response emojisResponse
	if err := utils.Decode(resp.Body, &response); err != nil {
		return nil, fmt.Errorf("cannot decode emojis response: %w", err)
	}

	moods := make([]domain.Mood, len(response.Emojis))
	for i, e := range response.Emojis {
		moods[i] = domain.Mood(e)
	}
	return moods, nil
}

// Ping checks that the backend answers on its root path.
func (c *APIClient) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return nil
}

// MissingMoods lists local moods the backend does not advertise.
func MissingMoods(remote []domain.Mood) []domain.Mood {
	known := make(map[domain.Mood]bool, len(remote))
	for _, m := range remote {
		known[m] = true
	}
	var missing []domain.Mood
	for _, m := range domain.Moods {
		if !known[m] {
			missing = append(missing, m)
		}
	}
	return missing
}
