package services

import (
	"errors"
	"fmt"

	"collabdev/models"

	"gorm.io/gorm"
)

// LedgerService owns every mutation of a contributor's coin balance. Credits
// and debits are single guarded UPDATE statements, so two concurrent
// operations on the same contributor can never act on a stale balance.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// Credit adds amount (> 0) to the contributor's balance.
func (s *LedgerService) Credit(contributorID string, amount int) error {
	return s.CreditTx(s.DB, contributorID, amount)
}

// CreditTx is Credit running inside an enclosing transaction.
func (s *LedgerService) CreditTx(tx *gorm.DB, contributorID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	res := tx.Model(&models.User{}).
		Where("id = ? AND kind = ?", contributorID, models.UserKindContributor).
		Update("total_coin", gorm.Expr("total_coin + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NotFoundError("contributor", contributorID)
	}
	return nil
}

// Debit subtracts amount from the contributor's balance, failing with
// InsufficientBalanceError if the balance does not cover it. The balance
// check and the decrement are one statement.
func (s *LedgerService) Debit(contributorID string, amount int) error {
	return s.DebitTx(s.DB, contributorID, amount)
}

// DebitTx is Debit running inside an enclosing transaction.
func (s *LedgerService) DebitTx(tx *gorm.DB, contributorID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	res := tx.Model(&models.User{}).
		Where("id = ? AND kind = ? AND total_coin >= ?", contributorID, models.UserKindContributor, amount).
		Update("total_coin", gorm.Expr("total_coin - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Guard failed: either the contributor is missing or the balance is
	// short. Re-read to tell the two apart.
	available, err := s.balance(tx, contributorID)
	if err != nil {
		return err
	}
	return &InsufficientBalanceError{Required: amount, Available: available}
}

// AddExperience bumps the contributor's experience points.
func (s *LedgerService) AddExperience(tx *gorm.DB, contributorID string, points int) error {
	return tx.Model(&models.User{}).
		Where("id = ? AND kind = ?", contributorID, models.UserKindContributor).
		Update("point_exp", gorm.Expr("point_exp + ?", points)).Error
}

// Balance returns the contributor's current coin balance.
func (s *LedgerService) Balance(contributorID string) (int, error) {
	return s.balance(s.DB, contributorID)
}

func (s *LedgerService) balance(tx *gorm.DB, contributorID string) (int, error) {
	var user models.User
	err := tx.Select("total_coin").
		Where("id = ? AND kind = ?", contributorID, models.UserKindContributor).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, NotFoundError("contributor", contributorID)
	}
	if err != nil {
		return 0, err
	}
	return user.TotalCoin, nil
}
