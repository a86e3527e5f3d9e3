package mutscore

import (
	"fmt"

	"yashubustudio/mutscore/plm"
)

// OpenModel loads the ONNX model described by cfg. padID marks padding
// positions when the model takes an attention mask.
func OpenModel(cfg ModelConfig, padID int64) (*plm.Session, error) {
	session, err := plm.Open(plm.Config{
		OrtLib:         cfg.OrtLib,
		ModelPath:      cfg.ModelPath,
		InputName:      cfg.InputName,
		MaskInputName:  cfg.MaskInputName,
		OutputName:     cfg.OutputName,
		PadID:          padID,
		UseCUDA:        cfg.Device == DeviceCUDA,
		DeviceID:       cfg.DeviceID,
		IntraOpThreads: cfg.IntraOpThreads,
	})
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	return session, nil
}
