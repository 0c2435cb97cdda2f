package penaltyvision

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Device is the compute device inference or training runs on
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
	DeviceMPS  Device = "mps"
)

// nvidiaSMI is the binary probed to find a CUDA capable GPU
var nvidiaSMI = "nvidia-smi"

// ParseDevice converts a device name given on the command line to a Device
func ParseDevice(name string) (Device, error) {

	switch d := Device(strings.ToLower(strings.TrimSpace(name))); d {
	case DeviceAuto, DeviceCPU, DeviceCUDA, DeviceMPS:
		return d, nil
	case "":
		return DeviceAuto, nil
	default:
		return "", fmt.Errorf("unknown device %q, use one of auto, cpu, cuda, mps", name)
	}
}

// DetectDevice picks the best available device, CUDA if an NVIDIA GPU
// responds, MPS on Apple Silicon, otherwise CPU
func DetectDevice() Device {

	if err := exec.Command(nvidiaSMI, "-L").Run(); err == nil {
		return DeviceCUDA
	}

	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return DeviceMPS
	}

	return DeviceCPU
}

// Resolve returns the concrete device, detecting one if set to auto
func (d Device) Resolve() Device {
	if d == DeviceAuto || d == "" {
		return DetectDevice()
	}

	return d
}

// YOLOArg returns the value for the Ultralytics "device" argument
func (d Device) YOLOArg() string {

	switch d.Resolve() {
	case DeviceCUDA:
		return "0"
	case DeviceMPS:
		return "mps"
	default:
		return "cpu"
	}
}

// String returns the device name
func (d Device) String() string {
	return string(d)
}
