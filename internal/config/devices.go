package config

import (
	"fmt"
	"math"

	"github.com/motionnets/mptrain/internal/rerrors"
)

// DeviceSpec describes the accelerator devices requested for a run. The
// configuration file may give either a device count or an explicit list of
// device IDs.
type DeviceSpec struct {
	// IDs holds explicit device identifiers. Empty when the spec was given as
	// a count.
	IDs []int
	// N is the device count when the spec was given as an integer.
	N int
}

// Count returns the number of devices the spec denotes.
func (d DeviceSpec) Count() int {
	if len(d.IDs) > 0 {
		return len(d.IDs)
	}
	return d.N
}

// Validate fails fast on zero or negative device counts rather than silently
// selecting no-parallelism.
func (d DeviceSpec) Validate() error {
	if d.Count() <= 0 {
		return rerrors.Configurationf("device spec must denote at least one device (got count %d)", d.Count())
	}
	return nil
}

// String renders the spec for logs.
func (d DeviceSpec) String() string {
	if len(d.IDs) > 0 {
		return fmt.Sprintf("%v", d.IDs)
	}
	return fmt.Sprintf("%d", d.N)
}

// ParseDeviceSpec interprets a raw configuration value as a device spec.
// Accepted forms: an integer count, or a list of integer device IDs.
func ParseDeviceSpec(v any) (DeviceSpec, error) {
	switch val := v.(type) {
	case nil:
		return DeviceSpec{}, rerrors.MissingKey("gpus")
	case int:
		return DeviceSpec{N: val}, nil
	case int64:
		return DeviceSpec{N: int(val)}, nil
	case uint64:
		return DeviceSpec{N: int(val)}, nil
	case float64:
		if val != math.Trunc(val) {
			return DeviceSpec{}, rerrors.Configurationf("device count must be an integer (got %v)", val)
		}
		return DeviceSpec{N: int(val)}, nil
	case []int:
		return DeviceSpec{IDs: append([]int(nil), val...)}, nil
	case []any:
		ids := make([]int, 0, len(val))
		for _, item := range val {
			id, err := toInt(item)
			if err != nil {
				return DeviceSpec{}, rerrors.Configurationf("device list entries must be integers (got %v)", item)
			}
			ids = append(ids, id)
		}
		return DeviceSpec{IDs: ids}, nil
	default:
		return DeviceSpec{}, rerrors.Configurationf("device spec must be an integer or a list of integers (got %T)", v)
	}
}

func toInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("not an integer: %v", val)
		}
		return int(val), nil
	default:
		return 0, fmt.Errorf("not an integer: %T", v)
	}
}
