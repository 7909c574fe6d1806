package usecase

import (
	"context"
	"errors"
	"log/slog"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"

	"github.com/shopspring/decimal"
)

// Settlement は支払い処理の結果
type Settlement struct {
	Status      model.PaymentStatus
	PhoneNumber string
}

// PaymentSettlement はウォレットの引き落としと返金だけを扱う。
// 呼び出し側のトランザクション(TxRepos)の中で使う
type PaymentSettlement struct {
	log *slog.Logger
}

func NewPaymentSettlement(log *slog.Logger) *PaymentSettlement {
	if log == nil {
		log = slog.Default()
	}
	return &PaymentSettlement{log: log}
}

func (p *PaymentSettlement) Settle(ctx context.Context, r repo.TxRepos, userID int64, method model.PaymentMethod, amount decimal.Decimal) (Settlement, error) {
	switch method {
	case model.PaymentMethodWallet:
		user, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return Settlement{}, notFoundError(ErrUserNotFound, "User not found")
		}
		if err != nil {
			return Settlement{}, persistenceError(err)
		}

		//残高チェックと減算を1文で（同時注文でもマイナスにならない）
		ok, err := r.Wallets().DebitIfEnough(ctx, userID, amount)
		if err != nil {
			return Settlement{}, persistenceError(err)
		}
		if !ok {
			return Settlement{}, businessRuleError(ErrInsufficientBalance, "Insufficient wallet balance")
		}
		return Settlement{Status: model.PaymentStatusPaid, PhoneNumber: user.PhoneNumber}, nil

	case model.PaymentMethodCashOnDelivery:
		//電話番号は取れなくても注文は通す
		phone := ""
		user, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			p.log.WarnContext(ctx, "payment: phone lookup failed", "user_id", userID, "error", err)
		} else {
			phone = user.PhoneNumber
		}
		return Settlement{Status: model.PaymentStatusUnpaid, PhoneNumber: phone}, nil
	}

	return Settlement{}, businessRuleError(ErrUnsupportedPaymentMethod, "Invalid payment method")
}

// Refund は支払い済みウォレット注文だけ返金する。返金したら refunded を返す
func (p *PaymentSettlement) Refund(ctx context.Context, r repo.TxRepos, o model.Order) (model.PaymentStatus, error) {
	if o.PaymentMethod != model.PaymentMethodWallet || o.PaymentStatus != model.PaymentStatusPaid {
		return o.PaymentStatus, nil
	}

	if err := r.Wallets().Credit(ctx, o.UserID, o.TotalAmount); err != nil {
		return "", persistenceError(err)
	}
	if err := r.Orders().UpdatePaymentStatus(ctx, o.ID, model.PaymentStatusRefunded); err != nil {
		return "", persistenceError(err)
	}
	return model.PaymentStatusRefunded, nil
}
