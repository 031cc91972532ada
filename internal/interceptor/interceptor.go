// Package interceptor holds the unary server interceptors used by the gRPC transport.
package interceptor

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/auth"
	"github.com/fekuna/omnipos-catalog-service/pkg/i18n"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ErrorDomain = "catalog.omnipos"

// Actor copies x-user-id from the incoming metadata onto the context. Requests without it pass
// through; mutating use cases reject a missing actor themselves.
func Actor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if id := auth.GetActorID(ctx); id != "" {
			ctx = auth.WithActor(ctx, id)
		}
		return handler(ctx, req)
	}
}

func Logging(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("actor_id", auth.GetActorID(ctx)),
		}
		if err == nil {
			log.Info("request completed", fields...)
			return resp, nil
		}

		fields = append(fields, zap.String("kind", string(apperror.KindOf(err))), zap.Error(err))
		if code := codeOf(err); code == codes.Internal || code == codes.Unavailable {
			log.Error("request failed", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}
		return resp, err
	}
}

// Errors converts handler errors into gRPC statuses carrying a google.rpc.ErrorInfo detail.
// Errors that already are statuses pass through unchanged.
func Errors(tr *i18n.Translator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}
		return resp, ToStatus(err, tr, auth.GetLanguage(ctx)).Err()
	}
}

func ToStatus(err error, tr *i18n.Translator, langs ...string) *status.Status {
	kind := apperror.KindOf(err)
	var field, id string
	if appErr, ok := asAppError(err); ok {
		field, id = appErr.Field, appErr.ID
	}

	msg := defaultMessage(err, kind)
	if tr != nil {
		if localized, ok := tr.Localize(string(kind), map[string]any{"Field": field, "ID": id}, langs...); ok {
			msg = localized
		}
	}

	meta := map[string]string{}
	if field != "" {
		meta["field"] = field
	}
	if id != "" {
		meta["id"] = id
	}

	st := status.New(Code(kind), msg)
	withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(kind),
		Domain:   ErrorDomain,
		Metadata: meta,
	})
	if detailErr != nil {
		return st
	}
	return withDetails
}

func Code(kind apperror.Kind) codes.Code {
	switch kind {
	case apperror.KindMissingField, apperror.KindInvalidPrice, apperror.KindInvalidTypeField,
		apperror.KindInvalidQuantity, apperror.KindNoUpdatesProvided:
		return codes.InvalidArgument
	case apperror.KindDuplicateName, apperror.KindAlreadyAssigned:
		return codes.AlreadyExists
	case apperror.KindProductNotFound, apperror.KindStoreNotFound:
		return codes.NotFound
	case apperror.KindNotAssigned, apperror.KindProductHasInventory, apperror.KindProductHasRecentSales,
		apperror.KindProductDeletionPrevented, apperror.KindInsufficientStock:
		return codes.FailedPrecondition
	case apperror.KindConflict:
		return codes.Aborted
	case apperror.KindStorageUnavailable:
		return codes.Unavailable
	}
	return codes.Internal
}

func codeOf(err error) codes.Code {
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return Code(apperror.KindOf(err))
}

func asAppError(err error) (*apperror.Error, bool) {
	var e *apperror.Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Internal errors keep their detail in the logs only.
func defaultMessage(err error, kind apperror.Kind) string {
	if kind == apperror.KindInternal {
		return "internal error"
	}
	if e, ok := asAppError(err); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
