package vision

import "image"

func preprocessForDetection(img image.Image, targetW, targetH int) []float32 {
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{127.5, 127.5, 127.5}, [3]float32{128.0, 128.0, 128.0})
}

func preprocessForEmbedding(img image.Image, targetW, targetH int) []float32 {
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{127.5, 127.5, 127.5}, [3]float32{127.5, 127.5, 127.5})
}

// imageToFloat32CHW converts an image to CHW float32 format with
// per-channel normalization: pixel = (pixel - mean) / std.
func imageToFloat32CHW(img image.Image, targetW, targetH int, mean, std [3]float32) []float32 {
	resized := resizeImage(img, targetW, targetH)
	bounds := resized.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	data := make([]float32, 3*h*w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			rf := float32(r >> 8)
			gf := float32(g >> 8)
			bf := float32(b >> 8)

			idx := y*w + x
			data[0*h*w+idx] = (rf - mean[0]) / std[0]
			data[1*h*w+idx] = (gf - mean[1]) / std[1]
			data[2*h*w+idx] = (bf - mean[2]) / std[2]
		}
	}

	return data
}

// resizeImage performs nearest-neighbour resize (fast, good enough for ML
// input).
func resizeImage(img image.Image, targetW, targetH int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))

	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			srcX := bounds.Min.X + x*srcW/targetW
			srcY := bounds.Min.Y + y*srcH/targetH
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}

	return dst
}

// cropFace extracts a face region with 10% padding on each side. Returns nil
// for degenerate boxes.
func cropFace(img image.Image, bbox [4]float32) image.Image {
	bounds := img.Bounds()

	x1 := clampI(int(bbox[0]), bounds.Min.X, bounds.Max.X)
	y1 := clampI(int(bbox[1]), bounds.Min.Y, bounds.Max.Y)
	x2 := clampI(int(bbox[2]), bounds.Min.X, bounds.Max.X)
	y2 := clampI(int(bbox[3]), bounds.Min.Y, bounds.Max.Y)

	w := x2 - x1
	h := y2 - y1
	if w <= 0 || h <= 0 {
		return nil
	}

	padW := int(float32(w) * 0.1)
	padH := int(float32(h) * 0.1)
	x1 = clampI(x1-padW, bounds.Min.X, bounds.Max.X)
	y1 = clampI(y1-padH, bounds.Min.Y, bounds.Max.Y)
	x2 = clampI(x2+padW, bounds.Min.X, bounds.Max.X)
	y2 = clampI(y2+padH, bounds.Min.Y, bounds.Max.Y)

	crop := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
	for cy := y1; cy < y2; cy++ {
		for cx := x1; cx < x2; cx++ {
			crop.Set(cx-x1, cy-y1, img.At(cx, cy))
		}
	}

	return crop
}

func clampI(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
