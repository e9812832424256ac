package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookclub/raffle/internal/raffle"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success(map[string]int{"free": 3}, func(io.Writer) {
		t.Fatal("text callback must not run in json mode")
	})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"free": 3.0}, resp.Data)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success(nil, func(w io.Writer) { fmt.Fprintln(w, "hello") })
	require.NoError(t, err)
	assert.Equal(t, "hello\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("NOT_FOUND", "reservation not found", map[string]string{"id": "r1"}))
	assert.Equal(t, "Error [NOT_FOUND]: reservation not found\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error("NOT_FOUND", "reservation not found", map[string]string{"id": "r1"}))
	assert.Contains(t, buf.String(), "Details:")
	assert.Contains(t, buf.String(), "r1")
}

func TestOutputFormatter_FailRaffleError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := &raffle.Error{Code: raffle.CodePersistence, Message: "state applied but snapshot was not saved", ReservationID: "r1", Err: errors.New("disk full")}
	err := formatter.Fail(cause)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, raffle.IsPersistence(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PERSISTENCE", resp.Error.Code)
	assert.Equal(t, "state applied but snapshot was not saved (reservation=r1): disk full", resp.Error.Message)
	assert.Equal(t, map[string]any{"reservation_id": "r1", "cause": "disk full"}, resp.Error.Details)
}

func TestOutputFormatter_FailWithoutDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Fail(raffle.NewConfigError("pool size must be positive, got 0"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_FailPlainError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(errors.New("boom"))
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [COMMAND]: boom\n", buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("no such file")
	err := WrapExitError(ExitCommandError, "failed to open store", cause)

	assert.Equal(t, "failed to open store: no such file", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "check failed", NewExitError(ExitFailure, "check failed").Error())
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
