package game

import (
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
)

// Event 状态机事件
type Event string

const (
	EventStart  Event = "start"
	EventPause  Event = "pause"
	EventResume Event = "resume"
	EventFinish Event = "finish"
	EventCancel Event = "cancel"
)

// StateTransition 状态转换定义
type StateTransition struct {
	From  models.GameStatus
	Event Event
	To    models.GameStatus
}

// transitions 游戏状态转换规则，FINISHED 与 CANCELLED 为终态
var transitions = []StateTransition{
	{From: models.GameStatusWaiting, Event: EventStart, To: models.GameStatusActive},
	{From: models.GameStatusWaiting, Event: EventCancel, To: models.GameStatusCancelled},
	{From: models.GameStatusActive, Event: EventPause, To: models.GameStatusPaused},
	{From: models.GameStatusPaused, Event: EventResume, To: models.GameStatusActive},
	{From: models.GameStatusActive, Event: EventFinish, To: models.GameStatusFinished},
	{From: models.GameStatusPaused, Event: EventFinish, To: models.GameStatusFinished},
}

// Transition 校验从 from 到 to 的状态变更，返回对应事件
func Transition(from, to models.GameStatus) (Event, error) {
	if !to.Valid() {
		return "", apperrors.Newf(apperrors.ErrInvalidParam, "未知的游戏状态: %s", to)
	}
	if from.IsTerminal() {
		return "", apperrors.New(apperrors.ErrGameFinished)
	}
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t.Event, nil
		}
	}
	if from == to {
		return "", apperrors.Newf(apperrors.ErrGameStateError, "游戏已处于 %s 状态", to)
	}
	return "", apperrors.Newf(apperrors.ErrGameStateError, "不允许从 %s 变更为 %s", from, to)
}

// Fire 按事件推进状态
func Fire(from models.GameStatus, evt Event) (models.GameStatus, error) {
	if from.IsTerminal() {
		return from, apperrors.New(apperrors.ErrGameFinished)
	}
	for _, t := range transitions {
		if t.From == from && t.Event == evt {
			return t.To, nil
		}
	}
	return from, apperrors.Newf(apperrors.ErrGameStateError, "状态 %s 不接受事件 %s", from, evt)
}

// EnsureMutable 终态游戏拒绝任何修改
func EnsureMutable(status models.GameStatus) error {
	if status.IsTerminal() {
		return apperrors.New(apperrors.ErrGameFinished)
	}
	return nil
}

// EnsureWaiting 只有等待中的游戏可以加入
func EnsureWaiting(status models.GameStatus) error {
	if status != models.GameStatusWaiting {
		return apperrors.Newf(apperrors.ErrGameAlreadyStarted, "当前状态: %s", status)
	}
	return nil
}

// EnsureActive 只有进行中的游戏可以操作回合
func EnsureActive(status models.GameStatus) error {
	if status != models.GameStatusActive {
		return apperrors.Newf(apperrors.ErrGameNotActive, "当前状态: %s", status)
	}
	return nil
}
