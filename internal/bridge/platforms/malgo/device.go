package malgo

import (
	"encoding/hex"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/audiograph/streambridge/internal/errors"
)

// AudioDeviceInfo holds information about a playback device as reported by
// miniaudio.
type AudioDeviceInfo struct {
	Index     int
	Name      string
	ID        string
	IsDefault bool
}

// platformBackends returns the miniaudio backend for the current operating
// system. nil lets miniaudio pick one itself.
func platformBackends() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return nil
	}
}

// EnumerateDevices returns the playback devices visible to miniaudio.
func EnumerateDevices() ([]AudioDeviceInfo, error) {
	ctx, err := malgo.InitContext(platformBackends(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "init_context").
			Context("os", runtime.GOOS).
			Build()
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "enumerate_devices").
			Build()
	}

	devices := make([]AudioDeviceInfo, 0, len(infos))
	for i := range infos {
		decodedID, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			decodedID = infos[i].ID.String()
		}

		devices = append(devices, AudioDeviceInfo{
			Index:     i,
			Name:      infos[i].Name(),
			ID:        decodedID,
			IsDefault: infos[i].IsDefault == 1,
		})
	}

	return devices, nil
}

// selectOutputDevice finds the playback device matching the given name or
// decoded ID. "default" matches the device miniaudio reports as default.
func selectOutputDevice(devices []malgo.DeviceInfo, deviceName string) (*malgo.DeviceInfo, error) {
	if deviceName == "" || deviceName == "default" {
		for i := range devices {
			if devices[i].IsDefault == 1 {
				return &devices[i], nil
			}
		}
		if len(devices) > 0 {
			return &devices[0], nil
		}
	}

	// Exact name match first
	for i := range devices {
		if devices[i].Name() == deviceName {
			return &devices[i], nil
		}
	}

	// Decoded ID match
	for i := range devices {
		decodedID, err := hexToASCII(devices[i].ID.String())
		if err == nil && decodedID == deviceName {
			return &devices[i], nil
		}
	}

	// Partial name match
	for i := range devices {
		if strings.Contains(devices[i].Name(), deviceName) {
			return &devices[i], nil
		}
	}

	return nil, errors.Newf("no output device matches %q", deviceName).
		Component(component).
		Category(errors.CategoryValidation).
		Context("device_name", deviceName).
		Context("available_devices", len(devices)).
		Build()
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
