package data

import (
	"context"
	"errors"

	"vidociki/internal/biz"
	"vidociki/internal/constants"
	"vidociki/internal/data/model"
	vidErrors "vidociki/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// referralRepo 推荐相关数据访问
type referralRepo struct {
	data *Data
	log  *log.Helper
}

// NewReferralRepo 创建推荐 repo（返回 biz.ReferralRepo 接口）
func NewReferralRepo(data *Data, logger log.Logger) biz.ReferralRepo {
	return &referralRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetAccountByReferralCode 按推荐码查找码主
func (r *referralRepo) GetAccountByReferralCode(ctx context.Context, code string) (*biz.UserAccount, error) {
	var m model.UserAccount
	if err := r.data.db.WithContext(ctx).Where("referral_code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizAccount(&m), nil
}

// SetReferralCode 写入推荐码，一经写入不可变更
// referral_code IS NULL 守卫 + 唯一索引共同保证不会覆盖已有码
func (r *referralRepo) SetReferralCode(ctx context.Context, userID, code string) error {
	result := r.data.db.WithContext(ctx).Model(&model.UserAccount{}).
		Where("user_id = ? AND referral_code IS NULL", userID).
		Update("referral_code", code)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 已有码：并发下另一个请求先写入了，调用方会重新读取
		return pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeReferralCodeGenFailed)
	}
	return nil
}

// HasUse 判断 (code, userID) 是否已有使用记录
func (r *referralRepo) HasUse(ctx context.Context, code, userID string) (bool, error) {
	var count int64
	if err := r.data.db.WithContext(ctx).Model(&model.ReferralUse{}).
		Where("referral_code = ? AND used_by_user_id = ?", code, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordRedemption 单事务落地兑换
// 使用记录的唯一索引和 referred_by IS NULL 守卫让并发重复兑换整体回滚，
// 码主奖励与流水在同一事务内写入
func (r *referralRepo) RecordRedemption(ctx context.Context, code, ownerID, redeemerID string, bonus int, today string) error {
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		use := model.ReferralUse{
			ReferralUseID: uuid.New().String(),
			ReferralCode:  code,
			UsedByUserID:  redeemerID,
			UsedDate:      today,
		}
		if err := tx.Create(&use).Error; err != nil {
			return err
		}

		// 给兑换人打 referred_by（码主的 user_id），仅允许从空设置一次
		result := tx.Model(&model.UserAccount{}).
			Where("user_id = ? AND referred_by IS NULL", redeemerID).
			Update("referred_by", ownerID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("redeemer already referred")
		}

		// 码主加奖励
		var owner model.UserAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", ownerID).First(&owner).Error; err != nil {
			return err
		}
		if err := tx.Model(&owner).Update("remaining_credits", gorm.Expr("remaining_credits + ?", bonus)).Error; err != nil {
			return err
		}

		entry := model.LedgerEntry{
			LedgerEntryID: uuid.New().String(),
			UserID:        ownerID,
			Type:          constants.EntryTypeReferralBonus,
			Credits:       bonus,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeReferralRecordFailed)
	}
	return nil
}
