package stream

import (
	"strconv"
	"time"

	"gocv.io/x/gocv"

	apperrors "go-fog-detector/internal/errors"
)

// CameraSource captures frames from a local camera or a network stream
// through OpenCV. Not safe for concurrent use; the processing loop is its
// single owner.
type CameraSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	index   int64
}

// OpenCamera opens the capture device. The device is either a numeric camera
// index ("0", "1") or a device path / stream URL. Failure to open is an
// acquisition error and fatal to starting a stream.
func OpenCamera(device string) (*CameraSource, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	if idx, convErr := strconv.Atoi(device); convErr == nil {
		capture, err = gocv.OpenVideoCapture(idx)
	} else {
		capture, err = gocv.OpenVideoCapture(device)
	}
	if err != nil {
		return nil, apperrors.NewAcquisitionError("failed to open capture device "+device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, apperrors.NewAcquisitionError("capture device "+device+" is not opened", nil)
	}

	return &CameraSource{
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

// CameraOpener returns a SourceOpener bound to the configured device.
func CameraOpener(device string) SourceOpener {
	return func() (FrameSource, error) {
		return OpenCamera(device)
	}
}

// Next reads one frame from the device. A failed read or an empty frame is
// reported as a transient miss; the device staying open means the stream may
// still recover.
func (s *CameraSource) Next() (Frame, error) {
	if !s.capture.Read(&s.mat) || s.mat.Empty() {
		return Frame{}, ErrNoFrame
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return Frame{}, ErrNoFrame
	}

	s.index++
	return Frame{
		Image:     img,
		Index:     s.index,
		Timestamp: time.Now(),
	}, nil
}

// Close releases the capture device and the reusable frame buffer.
func (s *CameraSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
