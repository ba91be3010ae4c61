package service

import (
	"context"
	"encoding/json"

	"streetrelay/internal/entity"
	"streetrelay/internal/repository"

	"gorm.io/datatypes"
)

func recordSecurity(
	ctx context.Context,
	logs repository.SecurityLogRepository,
	userID *string,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) error {
	if logs == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	return logs.Log(ctx, log)
}
