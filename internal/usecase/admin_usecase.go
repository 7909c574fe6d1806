package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"

	"github.com/shopspring/decimal"
)

// 管理者操作。どれも監査ログを同じトランザクションで残す
type AdminUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewAdminUsecase(tx repo.TransactionManager, clock Clock) *AdminUsecase {
	return &AdminUsecase{tx: tx, clock: clock}
}

// 数値でも "150.50" のような文字列でも受け付ける
type CreditWalletInput struct {
	Amount decimal.Decimal `json:"amount"`
}

type WalletOutput struct {
	UserID        int64           `json:"userId"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
}

type ForceLogoutOutput struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

// ウォレットへの入金
func (u *AdminUsecase) CreditWallet(ctx context.Context, adminID, userID int64, in CreditWalletInput) (WalletOutput, error) {
	if adminID <= 0 {
		return WalletOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if userID <= 0 {
		return WalletOutput{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if !in.Amount.IsPositive() {
		return WalletOutput{}, NewHTTPError(http.StatusBadRequest, "amount must be a positive number")
	}
	amount := in.Amount.Round(2)

	var out WalletOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Wallets().Balance(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "User not found")
		}
		if err != nil {
			return persistenceError(err)
		}

		if err := r.Wallets().Credit(ctx, userID, amount); err != nil {
			return persistenceError(err)
		}
		after := before.Add(amount)

		beforeJSON, _ := json.Marshal(map[string]string{"wallet_balance": before.StringFixed(2)})
		afterJSON, _ := json.Marshal(map[string]string{"wallet_balance": after.StringFixed(2)})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionWalletCredit,
			ResourceType: model.AuditResourceUser,
			ResourceID:   strconv.FormatInt(userID, 10),
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return persistenceError(err)
		}

		out = WalletOutput{UserID: userID, WalletBalance: after}
		return nil
	})
	if err != nil {
		return WalletOutput{}, asUsecaseError(err)
	}
	return out, nil
}

// token_versionを上げて、そのユーザーの発行済みトークンを全部無効にする
func (u *AdminUsecase) ForceLogout(ctx context.Context, adminID, userID int64) (ForceLogoutOutput, error) {
	if adminID <= 0 {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if userID <= 0 {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var out ForceLogoutOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Users().IncrementTokenVersion(ctx, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "User not found")
			}
			return persistenceError(err)
		}

		//更新後を取得してnew_token_versionを返す
		user, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return persistenceError(err)
		}

		beforeJSON, _ := json.Marshal(map[string]int{"token_version": user.TokenVersion - 1})
		afterJSON, _ := json.Marshal(map[string]int{"token_version": user.TokenVersion})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionForceLogout,
			ResourceType: model.AuditResourceUser,
			ResourceID:   strconv.FormatInt(userID, 10),
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return persistenceError(err)
		}

		out = ForceLogoutOutput{UserID: user.ID, NewTokenVersion: user.TokenVersion}
		return nil
	})
	if err != nil {
		return ForceLogoutOutput{}, asUsecaseError(err)
	}
	return out, nil
}
