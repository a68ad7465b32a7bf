package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"civic/internal/documents/models"
	"civic/internal/documents/service/mocks"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
)

func TestSave_StoreErrorTranslation(t *testing.T) {
	docID := id.DocumentID(uuid.New())
	userID := id.UserID(uuid.New())

	tests := []struct {
		name     string
		storeErr error
		code     dErrors.Code
		message  string
	}{
		{"missing document", fmt.Errorf("find: %w", sentinel.ErrNotFound), dErrors.CodeNotFound, "document not found"},
		{"concurrent version insert", fmt.Errorf("insert: %w", sentinel.ErrConflict), dErrors.CodeConflict, msgModified},
		{"database failure", errors.New("connection refused"), dErrors.CodeInternal, "failed to save document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			store.EXPECT().Execute(gomock.Any(), docID, gomock.Any()).Return(nil, tt.storeErr)

			svc, err := New(store)
			require.NoError(t, err)

			_, err = svc.Save(context.Background(), docID, userID, &models.SaveRequest{Content: "x", BaseVersion: 1})
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.code))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestVersion_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	docID := id.DocumentID(uuid.New())
	store.EXPECT().FindVersion(gomock.Any(), docID, 2).Return(nil, errors.New("timeout"))

	svc, err := New(store)
	require.NoError(t, err)

	_, err = svc.Version(context.Background(), docID, 2)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestRestore_MissingVersionSkipsWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	docID := id.DocumentID(uuid.New())
	store.EXPECT().FindVersion(gomock.Any(), docID, 4).Return(nil, sentinel.ErrNotFound)

	svc, err := New(store)
	require.NoError(t, err)

	_, err = svc.Restore(context.Background(), docID, id.UserID(uuid.New()), 4, &models.RestoreRequest{BaseVersion: 5})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
