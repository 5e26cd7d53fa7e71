// Package ledger 定义项目/捐款/提现/审核四类实体的状态机与统一的权限判定。
// 状态表只负责回答"从当前状态能否做这件事"；真正的提交由存储层
// 在同一事务内用条件更新完成，两个并发迁移只会有一个成功。
package ledger

import (
	"fmt"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"
)

// Event 实体状态迁移事件
type Event string

const (
	// 项目事件
	EventActivate Event = "activate"
	EventReject   Event = "reject"
	EventClose    Event = "close"

	// 捐款事件
	EventComplete Event = "complete"
	EventFail     Event = "fail"

	// 提现事件
	EventApprove  Event = "approve"
	EventTransfer Event = "transfer"
	EventCancel   Event = "cancel"

	// 审核事件复用 EventApprove / EventReject
)

var projectTransitions = map[string]map[Event]string{
	model.ProjectStatusPending: {
		EventActivate: model.ProjectStatusActive,
		EventReject:   model.ProjectStatusRejected,
		EventClose:    model.ProjectStatusClosed,
	},
	model.ProjectStatusActive: {
		EventClose: model.ProjectStatusClosed,
	},
}

var donationTransitions = map[string]map[Event]string{
	model.DonationStatusPending: {
		EventComplete: model.DonationStatusCompleted,
		EventFail:     model.DonationStatusFailed,
	},
}

var payoutTransitions = map[string]map[Event]string{
	model.PayoutStatusRequested: {
		EventApprove: model.PayoutStatusApproved,
		EventReject:  model.PayoutStatusRejected,
		EventCancel:  model.PayoutStatusCancelled,
	},
	model.PayoutStatusApproved: {
		EventTransfer: model.PayoutStatusTransferred,
	},
}

var verificationTransitions = map[string]map[Event]string{
	model.VerificationStatusPending: {
		EventApprove: model.VerificationStatusApproved,
		EventReject:  model.VerificationStatusRejected,
	},
}

func next(table map[string]map[Event]string, entity, current string, event Event) (string, error) {
	if targets, ok := table[current]; ok {
		if to, ok := targets[event]; ok {
			return to, nil
		}
	}
	return "", errors.New(errors.ErrInvalidTransition,
		fmt.Sprintf("%s 当前状态 %s 不允许执行 %s", entity, current, event))
}

// NextProjectStatus 返回项目在当前状态下执行事件后的目标状态
func NextProjectStatus(current string, event Event) (string, error) {
	return next(projectTransitions, "项目", current, event)
}

// NextDonationStatus 返回捐款在当前状态下执行事件后的目标状态
func NextDonationStatus(current string, event Event) (string, error) {
	return next(donationTransitions, "捐款", current, event)
}

// NextPayoutStatus 返回提现在当前状态下执行事件后的目标状态
func NextPayoutStatus(current string, event Event) (string, error) {
	return next(payoutTransitions, "提现", current, event)
}

// NextVerificationStatus 返回审核记录在当前状态下执行事件后的目标状态
func NextVerificationStatus(current string, event Event) (string, error) {
	return next(verificationTransitions, "审核", current, event)
}

// Authorize 统一的所有权判定：管理员放行，募捐人必须是实体所有者
func Authorize(role string, actorID, ownerID int) error {
	if role == model.RoleAdmin {
		return nil
	}
	if actorID == ownerID {
		return nil
	}
	return errors.New(errors.ErrForbidden, "没有权限操作该资源")
}

// AvailablePayout 计算可提现余额，负数一律归零
func AvailablePayout(collected, reserved float64) float64 {
	available := collected - reserved
	if available < 0 {
		return 0
	}
	return available
}
