package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"favharvest/internal/harvest"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth", &harvest.AuthError{Platform: harvest.Bilibili}, exitNoData},
		{"wrapped auth", fmt.Errorf("identify: %w", &harvest.AuthError{Platform: harvest.Zhihu}), exitNoData},
		{"no text", &harvest.NoTextError{Platform: harvest.Bilibili, ItemID: "BV1"}, exitNoData},
		{"token required", &harvest.AccessTokenRequiredError{Platform: harvest.Xiaohongshu, ItemID: "n"}, exitNoData},
		{"blocked", &harvest.BlockedError{Platform: harvest.Bilibili, Status: 412}, exitFailure},
		{"no credentials", &harvest.NoCredentialsError{Platform: harvest.Zhihu}, exitFailure},
		{"plain", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestNoHeadlessFlagAcceptedButIgnored(t *testing.T) {
	// The flag stays on the surface for forward compatibility; its help
	// text says so. Nothing else may consume it.
	f := rootCmd.PersistentFlags().Lookup("no-headless")
	assert.NotNil(t, f)
	assert.Contains(t, f.Usage, "ignores it")
}

func TestPickContainerID(t *testing.T) {
	reset := func() {
		itemsFolderID, itemsCollectionID, itemsBoardID = "", "", ""
	}

	reset()
	itemsFolderID = "42"
	id, err := pickContainerID(harvest.Bilibili)
	assert.NoError(t, err)
	assert.Equal(t, "42", id)

	reset()
	itemsBoardID = "saved"
	id, err = pickContainerID(harvest.Xiaohongshu)
	assert.NoError(t, err)
	assert.Equal(t, "saved", id)

	// The flag has to match the platform's container kind.
	reset()
	itemsFolderID = "42"
	_, err = pickContainerID(harvest.Zhihu)
	assert.ErrorContains(t, err, "--collection-id")

	// Exactly one id flag.
	reset()
	_, err = pickContainerID(harvest.Bilibili)
	assert.Error(t, err)

	reset()
	itemsFolderID, itemsBoardID = "1", "2"
	_, err = pickContainerID(harvest.Bilibili)
	assert.Error(t, err)

	reset()
}
