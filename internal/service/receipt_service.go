package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/repository/storage"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

const (
	MaxReceiptSize   = 10 * 1024 * 1024 // 10MB
	MaxReceiptWidth  = 2000
	MinReceiptWidth  = 50
	MinReceiptHeight = 50
	JPEGQuality      = 85
	PresignedExpiry  = 15 * time.Minute
)

var (
	ErrReceiptTooLarge      = errors.New("file too large. Maximum size is 10MB")
	ErrReceiptTooSmall      = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidReceiptFormat = errors.New("invalid format. Supported: JPEG, PNG, PDF")
	ErrInvalidReceiptData   = errors.New("invalid receipt data")
	ErrNoReceipt            = errors.New("spending transaction has no receipt")
	ErrStorageNotConfigured = errors.New("receipt storage not configured")
)

// allowedReceiptExtensions maps extensions to content types
// Only formats the image decoder can actually read are advertised; anything
// else would be accepted here and then fail decoding.
var allowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// ReceiptService handles receipt processing and storage. Image receipts are
// re-encoded as bounded JPEGs; PDFs are stored as-is.
type ReceiptService struct {
	spendingRepo domain.SpendingRepository
	storage      storage.ReceiptRepository
	publisher    websocket.EventPublisher
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(spendingRepo domain.SpendingRepository, storage storage.ReceiptRepository, publisher websocket.EventPublisher) *ReceiptService {
	return &ReceiptService{
		spendingRepo: spendingRepo,
		storage:      storage,
		publisher:    publisher,
	}
}

// IsEnabled indicates whether uploads/deletes are supported (storage configured).
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// AttachReceipt stores a receipt and links it to the spending transaction,
// replacing and removing any previous receipt object.
func (s *ReceiptService) AttachReceipt(ctx context.Context, userID uuid.UUID, spendingID int32, data []byte, filename string) (*domain.SpendingTransaction, error) {
	if !s.IsEnabled() {
		return nil, ErrStorageNotConfigured
	}

	tx, err := s.spendingRepo.GetByID(userID, spendingID)
	if err != nil {
		return nil, err
	}

	payload, contentType, ext, err := s.prepare(data, filename)
	if err != nil {
		return nil, err
	}

	objectPath := fmt.Sprintf("%s/receipts/%d/%s%s", userID, spendingID, uuid.New().String(), ext)
	path, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(payload), contentType, int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to upload receipt: %w", err)
	}

	previous := tx.ReceiptPath

	updated, err := s.spendingRepo.SetReceiptPath(userID, spendingID, &path)
	if err != nil {
		// Linking failed; don't leave the new object orphaned
		_ = s.storage.Delete(ctx, path)
		return nil, err
	}

	if previous != nil {
		_ = s.storage.Delete(ctx, *previous)
	}

	s.publisher.Publish(userID, websocket.SpendingUpdated(updated))
	return updated, nil
}

// GetReceiptURL returns a short-lived download URL for the receipt
func (s *ReceiptService) GetReceiptURL(ctx context.Context, userID uuid.UUID, spendingID int32) (string, error) {
	if !s.IsEnabled() {
		return "", ErrStorageNotConfigured
	}

	tx, err := s.spendingRepo.GetByID(userID, spendingID)
	if err != nil {
		return "", err
	}
	if tx.ReceiptPath == nil {
		return "", ErrNoReceipt
	}

	return s.storage.GeneratePresignedURL(ctx, *tx.ReceiptPath, PresignedExpiry)
}

// RemoveReceipt detaches and deletes the receipt of a spending transaction
func (s *ReceiptService) RemoveReceipt(ctx context.Context, userID uuid.UUID, spendingID int32) (*domain.SpendingTransaction, error) {
	if !s.IsEnabled() {
		return nil, ErrStorageNotConfigured
	}

	tx, err := s.spendingRepo.GetByID(userID, spendingID)
	if err != nil {
		return nil, err
	}
	if tx.ReceiptPath == nil {
		return nil, ErrNoReceipt
	}

	path := *tx.ReceiptPath
	updated, err := s.spendingRepo.SetReceiptPath(userID, spendingID, nil)
	if err != nil {
		return nil, err
	}

	_ = s.storage.Delete(ctx, path)

	s.publisher.Publish(userID, websocket.SpendingUpdated(updated))
	return updated, nil
}

// prepare validates the upload and returns the bytes to store. Images are
// decoded, bounded to MaxReceiptWidth, and re-encoded as JPEG; PDFs pass
// through untouched.
func (s *ReceiptService) prepare(data []byte, filename string) ([]byte, string, string, error) {
	if len(data) > MaxReceiptSize {
		return nil, "", "", ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedReceiptExtensions[ext]
	if !ok {
		return nil, "", "", ErrInvalidReceiptFormat
	}

	if contentType == "application/pdf" {
		return data, contentType, ext, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", "", ErrInvalidReceiptData
	}

	if img.Bounds().Dx() < MinReceiptWidth || img.Bounds().Dy() < MinReceiptHeight {
		return nil, "", "", ErrReceiptTooSmall
	}

	if img.Bounds().Dx() > MaxReceiptWidth {
		// Resize maintaining aspect ratio
		img = imaging.Resize(img, MaxReceiptWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, "", "", fmt.Errorf("failed to encode receipt: %w", err)
	}
	return buf.Bytes(), "image/jpeg", ".jpg", nil
}
