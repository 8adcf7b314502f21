package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/app"
	"github.com/felixgeelhaar/spabook/internal/availability/application/queries"
	"github.com/felixgeelhaar/spabook/internal/calendar/application/commands"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *cli.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := app.NewContainer(context.Background(), testutil.Config(t), logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	cliApp := container.CLIApp()
	cli.SetApp(cliApp)
	t.Cleanup(func() { cli.SetApp(nil) })
	return cliApp
}

func runSlots(t *testing.T) (string, error) {
	t.Helper()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetContext(context.Background())
	t.Cleanup(func() { Cmd.SetOut(nil) })
	err := Cmd.RunE(Cmd, nil)
	return out.String(), err
}

func TestSlotsCmd_ListsOpenDay(t *testing.T) {
	a := setupTestApp(t)
	day := sharedDomain.DateOf(time.Now().In(a.Location), a.Location).AddDays(3)

	slotsService = testutil.RelaxingMassageID
	slotsDate = day.String()
	slotsAll = false

	out, err := runSlots(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Slots on "+day.String())
	assert.Contains(t, out, "09:00-")
}

func TestSlotsCmd_BlockedDay(t *testing.T) {
	a := setupTestApp(t)
	day := sharedDomain.DateOf(time.Now().In(a.Location), a.Location).AddDays(3)

	_, err := a.BlockDay.Handle(context.Background(), commands.BlockDayCommand{Date: day, Reason: "Feriado", BlockedBy: "test"})
	require.NoError(t, err)

	slotsService = testutil.HotStonesID
	slotsDate = day.String()

	out, err := runSlots(t)
	require.NoError(t, err)
	assert.Contains(t, out, "is closed")
}

func TestSlotsCmd_InvalidService(t *testing.T) {
	setupTestApp(t)

	slotsService = "massage"
	slotsDate = ""

	_, err := runSlots(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid service ID")
}

func TestSlotsCmd_ResultEncodesAsJSON(t *testing.T) {
	a := setupTestApp(t)
	day := sharedDomain.DateOf(time.Now().In(a.Location), a.Location).AddDays(3)

	result, err := a.AvailableSlots.Handle(context.Background(), queries.AvailableSlotsQuery{
		Date:      day,
		ServiceID: uuid.MustParse(testutil.ReflexologyID),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, cli.PrintJSON(&out, result))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, day.String(), decoded["fecha"])
	assert.Equal(t, "available", decoded["estado"])
	assert.NotEmpty(t, decoded["horarios"])
}
