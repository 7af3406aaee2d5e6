package systemd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotify_OutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	assert.NoError(t, NotifyReady())
	assert.NoError(t, NotifyStopping())
}
