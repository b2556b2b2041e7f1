package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ExpiryFunc returns the expiry of the active master key.
type ExpiryFunc func(ctx context.Context) (time.Time, error)

// RegisterMasterKeyExpiry registers the {namespace}_master_key_expiry_seconds gauge: the
// seconds left before the active master key expires. It goes negative once the key is
// past its expiry and no DEK has been issued since to trigger rotation. Observations
// are skipped while expiresAt fails.
func RegisterMasterKeyExpiry(meterProvider metric.MeterProvider, namespace string, expiresAt ExpiryFunc) error {
	return registerMasterKeyExpiry(meterProvider, namespace, expiresAt, time.Now)
}

func registerMasterKeyExpiry(
	meterProvider metric.MeterProvider,
	namespace string,
	expiresAt ExpiryFunc,
	now func() time.Time,
) error {
	meter := meterProvider.Meter(namespace)

	_, err := meter.Float64ObservableGauge(
		fmt.Sprintf("%s_master_key_expiry_seconds", namespace),
		metric.WithDescription("Seconds until the active master key expires"),
		metric.WithUnit("s"),
		metric.WithFloat64Callback(func(ctx context.Context, observer metric.Float64Observer) error {
			expiry, err := expiresAt(ctx)
			if err != nil {
				return nil
			}
			observer.Observe(expiry.Sub(now()).Seconds())
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create master key expiry gauge: %w", err)
	}
	return nil
}
