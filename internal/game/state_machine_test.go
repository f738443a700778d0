package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name string
		from models.GameStatus
		to   models.GameStatus
		want Event
		code apperrors.ErrorCode
	}{
		{"开始游戏", models.GameStatusWaiting, models.GameStatusActive, EventStart, 0},
		{"取消大厅", models.GameStatusWaiting, models.GameStatusCancelled, EventCancel, 0},
		{"暂停", models.GameStatusActive, models.GameStatusPaused, EventPause, 0},
		{"恢复", models.GameStatusPaused, models.GameStatusActive, EventResume, 0},
		{"结束", models.GameStatusActive, models.GameStatusFinished, EventFinish, 0},
		{"暂停中结束", models.GameStatusPaused, models.GameStatusFinished, EventFinish, 0},
		{"重复开始", models.GameStatusActive, models.GameStatusActive, "", apperrors.ErrGameStateError},
		{"等待中直接结束", models.GameStatusWaiting, models.GameStatusFinished, "", apperrors.ErrGameStateError},
		{"终态不可变", models.GameStatusFinished, models.GameStatusActive, "", apperrors.ErrGameFinished},
		{"未知状态", models.GameStatusActive, models.GameStatus("DONE"), "", apperrors.ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := Transition(tt.from, tt.to)
			if tt.code != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.code, apperrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, evt)
		})
	}
}

func TestFire(t *testing.T) {
	status, err := Fire(models.GameStatusWaiting, EventStart)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusActive, status)

	status, err = Fire(status, EventFinish)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusFinished, status)

	_, err = Fire(status, EventResume)
	assert.True(t, apperrors.Is(err, apperrors.ErrGameFinished))
}

func TestEnsureGuards(t *testing.T) {
	assert.NoError(t, EnsureWaiting(models.GameStatusWaiting))
	assert.True(t, apperrors.Is(EnsureWaiting(models.GameStatusActive), apperrors.ErrGameAlreadyStarted))
	assert.NoError(t, EnsureActive(models.GameStatusActive))
	assert.True(t, apperrors.Is(EnsureActive(models.GameStatusPaused), apperrors.ErrGameNotActive))
	assert.NoError(t, EnsureMutable(models.GameStatusPaused))
	assert.True(t, apperrors.Is(EnsureMutable(models.GameStatusCancelled), apperrors.ErrGameFinished))
}
