package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"nibog/infras/otel"
	"nibog/infras/postgres"
	"nibog/internal/domains/notification/model"
	gDto "nibog/shared/dto"
	gRepo "nibog/shared/repository"
)

type NotificationLog interface {
	Insert(ctx context.Context, model model.NotificationLog) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.NotificationLog, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.NotificationLog]
}

func New(db *postgres.Connection, otel otel.Otel) NotificationLog {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.NotificationLog](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
