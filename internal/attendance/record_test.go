package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyScan_PendingToPresent(t *testing.T) {
	r := NewRecord("STU001", "2026-10-18")
	require.True(t, r.Consistent())

	require.NoError(t, ApplyScan(&r, "07:45"))
	assert.Equal(t, StatusPresent, r.Status)
	require.NotNil(t, r.Time)
	assert.Equal(t, "07:45", *r.Time)
	assert.True(t, r.NotificationSent)
	assert.Nil(t, r.GeneratedMessage)
	assert.True(t, r.Consistent())
}

func TestApplyScan_PresentIsIdempotent(t *testing.T) {
	r := NewRecord("STU001", "2026-10-18")
	require.NoError(t, ApplyScan(&r, "07:45"))
	require.True(t, SetMessage(&r, StatusPresent, "hola"))
	before := r

	err := ApplyScan(&r, "08:30")
	assert.ErrorIs(t, err, ErrAlreadyPresent)
	assert.Equal(t, "07:45", *r.Time)
	assert.Equal(t, "hola", r.Message())
	assert.Equal(t, before, r)
}

func TestApplyScan_AbsentRejected(t *testing.T) {
	r := NewRecord("STU001", "2026-10-18")
	require.True(t, ApplyDayClose(&r))

	err := ApplyScan(&r, "09:00")
	assert.ErrorIs(t, err, ErrDayClosed)
	assert.Equal(t, StatusAbsent, r.Status)
	assert.Nil(t, r.Time)
}

func TestApplyDayClose(t *testing.T) {
	r := NewRecord("STU001", "2026-10-18")
	assert.True(t, ApplyDayClose(&r))
	assert.Equal(t, StatusAbsent, r.Status)
	assert.True(t, r.NotificationSent)
	assert.Nil(t, r.Time)
	assert.True(t, r.Consistent())

	assert.False(t, ApplyDayClose(&r))

	p := NewRecord("STU002", "2026-10-18")
	require.NoError(t, ApplyScan(&p, "07:00"))
	assert.False(t, ApplyDayClose(&p))
	assert.Equal(t, StatusPresent, p.Status)
}

func TestSetMessage_PendingIgnored(t *testing.T) {
	r := NewRecord("STU001", "2026-10-18")
	assert.False(t, SetMessage(&r, StatusPending, "x"))
	assert.False(t, SetMessage(&r, StatusPresent, "x"))
	assert.Nil(t, r.GeneratedMessage)
}

func TestSetMessage_StatusMismatch(t *testing.T) {
	// reset and closed while the arrival message was being composed
	r := NewRecord("STU001", "2026-10-18")
	require.NoError(t, ApplyScan(&r, "07:45"))
	Reset(&r)
	require.True(t, ApplyDayClose(&r))

	assert.False(t, SetMessage(&r, StatusPresent, "ingresó a las 07:45"))
	assert.Nil(t, r.GeneratedMessage)
	assert.True(t, SetMessage(&r, StatusAbsent, "no asistió"))
	assert.Equal(t, "no asistió", r.Message())
}

func TestReset(t *testing.T) {
	r := NewRecord("STU001", "2026-10-18")
	require.NoError(t, ApplyScan(&r, "07:00"))
	SetMessage(&r, StatusPresent, "x")
	Reset(&r)
	assert.Equal(t, NewRecord("STU001", "2026-10-18"), r)
}
