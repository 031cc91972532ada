package interceptor

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/auth"
	"github.com/fekuna/omnipos-catalog-service/pkg/i18n"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/omnipos.catalog.v1.CatalogService/CreateProduct"}

func failWith(err error) grpc.UnaryHandler {
	return func(ctx context.Context, req any) (any, error) { return nil, err }
}

func TestCode(t *testing.T) {
	tests := []struct {
		kind apperror.Kind
		want codes.Code
	}{
		{apperror.KindMissingField, codes.InvalidArgument},
		{apperror.KindInvalidPrice, codes.InvalidArgument},
		{apperror.KindNoUpdatesProvided, codes.InvalidArgument},
		{apperror.KindDuplicateName, codes.AlreadyExists},
		{apperror.KindAlreadyAssigned, codes.AlreadyExists},
		{apperror.KindStoreNotFound, codes.NotFound},
		{apperror.KindInsufficientStock, codes.FailedPrecondition},
		{apperror.KindProductDeletionPrevented, codes.FailedPrecondition},
		{apperror.KindConflict, codes.Aborted},
		{apperror.KindStorageUnavailable, codes.Unavailable},
		{apperror.KindInternal, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.kind))
		})
	}
}

func TestErrorsAttachesErrorInfo(t *testing.T) {
	tr, err := i18n.New()
	require.NoError(t, err)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("accept-language", "id"))
	_, err = Errors(tr)(ctx, nil, info, failWith(apperror.ProductNotFound("p-1")))

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "Produk p-1 tidak ditemukan", st.Message())

	require.Len(t, st.Details(), 1)
	ei, ok := st.Details()[0].(*errdetails.ErrorInfo)
	require.True(t, ok)
	assert.Equal(t, "ProductNotFound", ei.Reason)
	assert.Equal(t, ErrorDomain, ei.Domain)
	assert.Equal(t, map[string]string{"id": "p-1"}, ei.Metadata)
}

func TestErrorsHidesInternalDetail(t *testing.T) {
	_, err := Errors(nil)(context.Background(), nil, info, failWith(errors.New("pq: password authentication failed")))

	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestErrorsPassesStatusThrough(t *testing.T) {
	orig := status.Error(codes.Unauthenticated, "no token")
	_, err := Errors(nil)(context.Background(), nil, info, failWith(orig))
	assert.Equal(t, orig, err)
}

func TestActorStoresUserID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-user-id", "u-9"))

	var seen string
	_, err := Actor()(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		seen = auth.GetActorID(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u-9", seen)
}

func TestLoggingReturnsHandlerResult(t *testing.T) {
	resp, err := Logging(logger.NewNop())(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return "resp", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "resp", resp)

	want := apperror.InsufficientStock("p", "s", 1, 2)
	_, err = Logging(logger.NewNop())(context.Background(), "req", info, failWith(want))
	assert.Same(t, want, err)
}
