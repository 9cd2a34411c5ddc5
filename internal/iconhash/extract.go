package iconhash

import (
	"archive/zip"
	"bytes"
	"image"
	"io"
	"strings"

	_ "image/png"

	_ "golang.org/x/image/webp"
)

// maxIconBytes 单个图标条目的读取上限
const maxIconBytes = 16 * 1024 * 1024 // 16MB

// ExtractPrimaryIcon 从 APK 中提取主图标
// 优先使用 manifest 给出的路径提示；提示缺失或不可解码时，
// 扫描 res/ 下 mipmap/drawable 目录中的 png/webp 候选，取像素面积最大者，
// 面积相同时保留枚举顺序中先出现的条目。单个候选解码失败只跳过，不致命。
// 完全没有可用图标时返回 (nil, nil)。
func ExtractPrimaryIcon(apkPath, hint string) ([]byte, image.Image) {
	r, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, nil
	}
	defer r.Close()

	if hint != "" {
		for _, f := range r.File {
			if f.Name != hint {
				continue
			}
			if data, img := readAndDecode(f); img != nil {
				return data, img
			}
			break
		}
	}

	var bestData []byte
	var bestImg image.Image
	bestArea := 0

	for _, f := range r.File {
		name := strings.ToLower(f.Name)
		if !strings.HasPrefix(name, "res/") {
			continue
		}
		if !strings.HasSuffix(name, ".png") && !strings.HasSuffix(name, ".webp") {
			continue
		}
		if !strings.Contains(name, "mipmap") && !strings.Contains(name, "drawable") {
			continue
		}

		data, img := readAndDecode(f)
		if img == nil {
			continue
		}

		bounds := img.Bounds()
		area := bounds.Dx() * bounds.Dy()
		if area > bestArea {
			bestArea = area
			bestData = data
			bestImg = img
		}
	}

	return bestData, bestImg
}

// readAndDecode 读取条目字节并解码为图像，失败返回 (nil, nil)
func readAndDecode(f *zip.File) ([]byte, image.Image) {
	if f.UncompressedSize64 > maxIconBytes {
		return nil, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(rc, maxIconBytes))
	rc.Close()
	if err != nil {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}

	return data, img
}
