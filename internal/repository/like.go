package repository

import (
	"context"

	"warbler/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository manages user to message like edges.
type LikeRepository interface {
	Like(ctx context.Context, userID, messageID uint) (bool, error)
	Unlike(ctx context.Context, userID, messageID uint) (bool, error)
	Exists(ctx context.Context, userID, messageID uint) (bool, error)
	LikedMessages(ctx context.Context, userID uint) ([]models.Message, error)
	LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error)
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteOnMessagesOf(ctx context.Context, authorID uint) error
}

type likeRepository struct {
	db  *gorm.DB
	inv *invalidator
}

// Like inserts the edge and reports whether it was new.
func (r *likeRepository) Like(ctx context.Context, userID, messageID uint) (bool, error) {
	like := models.Like{UserID: userID, MessageID: messageID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "message_id"}}, DoNothing: true}).
		Create(&like)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.inv.userStats(ctx, userID)
	return true, nil
}

func (r *likeRepository) Unlike(ctx context.Context, userID, messageID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.inv.userStats(ctx, userID)
	return true, nil
}

func (r *likeRepository) Exists(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// LikedMessages returns the messages userID has liked, newest like first.
func (r *likeRepository) LikedMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.id DESC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *likeRepository) LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ?", userID).
		Pluck("message_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *likeRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.inv.userStats(ctx, userID)
	return nil
}

// DeleteOnMessagesOf removes every like on a message written by authorID.
func (r *likeRepository) DeleteOnMessagesOf(ctx context.Context, authorID uint) error {
	sub := r.db.Model(&models.Message{}).Select("id").Where("user_id = ?", authorID)

	var likers []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("message_id IN (?)", sub).
		Distinct().
		Pluck("user_id", &likers).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Where("message_id IN (?)", sub).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.inv.userStats(ctx, likers...)
	return nil
}
