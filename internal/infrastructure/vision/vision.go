// Package vision содержит камеру и классификаторы кадров.
// Реализации на OpenCV собираются с тегом gocv, без него подключаются заглушки.
package vision

// DefaultJPEGQuality качество JPEG для превью
const DefaultJPEGQuality = 80
