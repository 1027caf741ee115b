package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"path/filepath"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/faceid/internal/config"
	"github.com/your-org/faceid/internal/models"
)

// Face is one extracted face: location, detection confidence and a
// normalized embedding.
type Face struct {
	BBox       models.BoundingBox
	Confidence float32
	Embedding  []float32
}

// Extractor turns a photo into the set of faces it contains. An empty slice
// with a nil error means the photo has no faces.
type Extractor interface {
	Extract(imageBytes []byte) ([]Face, error)
}

// ONNXExtractor chains RetinaFace detection and embedding extraction.
type ONNXExtractor struct {
	detector *Detector
	embedder *Embedder
}

// NewONNXExtractor loads both models from cfg.ModelsDir.
func NewONNXExtractor(cfg config.VisionConfig, opts *ort.SessionOptions) (*ONNXExtractor, error) {
	detPath := filepath.Join(cfg.ModelsDir, "det_10g.onnx")
	embPath := filepath.Join(cfg.ModelsDir, "w600k_r50.onnx")

	slog.Info("loading detection model", "path", detPath)
	det, err := NewDetector(detPath, float32(cfg.DetectionThreshold), opts)
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath, "dim", cfg.EmbeddingDim)
	emb, err := NewEmbedder(embPath, cfg.EmbeddingDim, opts)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	return &ONNXExtractor{detector: det, embedder: emb}, nil
}

// Extract decodes the photo, detects faces and embeds each crop. Undecodable
// bytes are a terminal input error, not an infrastructure failure.
func (e *ONNXExtractor) Extract(imageBytes []byte) ([]Face, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, models.ErrImageDecode.WithError(err)
	}

	bounds := img.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	detInput := preprocessForDetection(img, e.detector.inputW, e.detector.inputH)
	detections, err := e.detector.Detect(detInput, origW, origH)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	faces := make([]Face, 0, len(detections))
	for _, det := range detections {
		crop := cropFace(img, det.BBox)
		if crop == nil {
			continue
		}

		embInput := preprocessForEmbedding(crop, e.embedder.inputW, e.embedder.inputH)
		embedding, err := e.embedder.Embed(embInput)
		if err != nil {
			slog.Warn("embed face", "error", err)
			continue
		}

		faces = append(faces, Face{
			BBox: models.BoundingBox{
				X:      int(det.BBox[0]),
				Y:      int(det.BBox[1]),
				Width:  int(det.BBox[2] - det.BBox[0]),
				Height: int(det.BBox[3] - det.BBox[1]),
			},
			Confidence: det.Confidence,
			Embedding:  embedding,
		})
	}

	return faces, nil
}

// EmbeddingDim returns the dimension of produced embeddings.
func (e *ONNXExtractor) EmbeddingDim() int {
	return e.embedder.EmbeddingDim()
}

func (e *ONNXExtractor) Close() {
	if e.detector != nil {
		e.detector.Close()
	}
	if e.embedder != nil {
		e.embedder.Close()
	}
}
