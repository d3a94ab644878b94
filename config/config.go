// Package config loads and validates the grasp service configuration.
package config

import (
	"encoding/json"
	"time"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/grasp/depthmap"
	"go.viam.com/grasp/projection"
	"go.viam.com/grasp/spatialmath"
	"go.viam.com/grasp/utils"
)

// Translation is a camera offset in meters.
type Translation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// EulerDeg is a camera orientation as roll, pitch, yaw in degrees.
type EulerDeg struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// StaticCameraPose fixes the camera pose in the base frame for cameras
// bolted to the robot, instead of looking the pose up per request.
type StaticCameraPose struct {
	Translation Translation `json:"translation"`
	EulerDeg    EulerDeg    `json:"euler_deg"`
}

// Pose converts the configured offset and angles into a pose.
func (s *StaticCameraPose) Pose() spatialmath.Pose {
	return spatialmath.NewPose(
		r3.Vector{X: s.Translation.X, Y: s.Translation.Y, Z: s.Translation.Z},
		&spatialmath.EulerAngles{
			Roll:  utils.DegToRad(s.EulerDeg.Roll),
			Pitch: utils.DegToRad(s.EulerDeg.Pitch),
			Yaw:   utils.DegToRad(s.EulerDeg.Yaw),
		},
	)
}

// Model points at the mlmodel service running the grasp network.
type Model struct {
	Address    string                 `json:"address"`
	Name       string                 `json:"name"`
	TimeoutSec float64                `json:"timeout_sec"`
	Insecure   bool                   `json:"insecure"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// Timeout returns the per-call inference timeout, zero when unset.
func (m *Model) Timeout() time.Duration {
	return time.Duration(m.TimeoutSec * float64(time.Second))
}

// Validate ensures all parts of the config are valid.
func (m *Model) Validate(path string) error {
	if m.Address == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "address")
	}
	if m.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	return nil
}

// Robot points at the robot whose frame system locates the camera.
type Robot struct {
	Address    string  `json:"address"`
	TimeoutSec float64 `json:"timeout_sec"`
	Insecure   bool    `json:"insecure"`
}

// Timeout returns the per-call frame lookup timeout, zero when unset.
func (r *Robot) Timeout() time.Duration {
	return time.Duration(r.TimeoutSec * float64(time.Second))
}

// Validate ensures all parts of the config are valid.
func (r *Robot) Validate(path string) error {
	if r.Address == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "address")
	}
	return nil
}

// Config holds everything the grasp service needs at startup.
type Config struct {
	BindAddress      string                              `json:"bind_address"`
	CropSize         int                                 `json:"crop_size"`
	CropYOffset      int                                 `json:"crop_y_offset"`
	OutputSize       int                                 `json:"output_size"`
	FOVDegrees       float64                             `json:"fov_degrees"`
	ImageWidth       int                                 `json:"image_width"`
	ImageHeight      int                                 `json:"image_height"`
	BaseFrame        string                              `json:"base_frame"`
	CameraFrame      string                              `json:"camera_frame"`
	MultiDetection   bool                                `json:"multi_detection"`
	QualityBlurSigma float64                             `json:"quality_blur_sigma"`
	DebugDir         string                              `json:"debug_dir"`
	Intrinsics       *projection.PinholeCameraIntrinsics `json:"intrinsics,omitempty"`
	StaticCameraPose *StaticCameraPose                   `json:"static_camera_pose,omitempty"`
	Model            Model                               `json:"model"`
	Robot            *Robot                              `json:"robot,omitempty"`
}

// Default returns a config preloaded with the values that hold unless the
// file overrides them. A pose source and the model address still have to
// come from the file.
func Default() *Config {
	return &Config{
		BindAddress:    ":8085",
		CropSize:       400,
		CropYOffset:    0,
		OutputSize:     300,
		FOVDegrees:     65.5,
		ImageWidth:     640,
		ImageHeight:    480,
		BaseFrame:      "base",
		CameraFrame:    "camera",
		MultiDetection: true,
	}
}

// Read reads a config from the given file, substituting environment
// variables first.
func Read(path string) (*Config, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", path)
	}
	cfg := Default()
	if err := json.Unmarshal(buf, cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", path)
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Geometry returns the crop window the config describes.
func (c *Config) Geometry() depthmap.CropGeometry {
	return depthmap.CropGeometry{
		CropSize:    c.CropSize,
		OutputSize:  c.OutputSize,
		YOffset:     c.CropYOffset,
		ImageWidth:  c.ImageWidth,
		ImageHeight: c.ImageHeight,
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.BindAddress == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "bind_address")
	}
	if c.BaseFrame == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "base_frame")
	}
	if c.CameraFrame == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "camera_frame")
	}
	if c.FOVDegrees <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("fov_degrees must be positive"))
	}
	if c.QualityBlurSigma < 0 {
		return goutils.NewConfigValidationError(path, errors.New("quality_blur_sigma cannot be negative"))
	}
	if err := c.Geometry().Validate(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if c.Intrinsics != nil {
		if err := c.Intrinsics.CheckValid(); err != nil {
			return goutils.NewConfigValidationError(path+".intrinsics", err)
		}
	}
	if c.StaticCameraPose == nil && c.Robot == nil {
		return goutils.NewConfigValidationError(path,
			errors.New("one of static_camera_pose or robot is required"))
	}
	if c.StaticCameraPose != nil && c.Robot != nil {
		return goutils.NewConfigValidationError(path,
			errors.New("static_camera_pose and robot are mutually exclusive"))
	}
	if err := c.Model.Validate(path + ".model"); err != nil {
		return err
	}
	if c.Robot != nil {
		if err := c.Robot.Validate(path + ".robot"); err != nil {
			return err
		}
	}
	return nil
}
