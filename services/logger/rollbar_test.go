package logsvc

import (
	"bytes"
	"errors"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", Debug: true})

	req := httptest.NewRequest("PUT", "/api/timetables/c1/assign", nil)
	logger.Warn("timetable cache get failed", errors.New("connection refused"), req)

	assert.Equal(t,
		"WARN: timetable cache get failed\n\tconnection refused\n\tPUT /api/timetables/c1/assign\n",
		buf.String(),
	)
}
