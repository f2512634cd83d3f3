package banktransfer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var receiptExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".pdf":  true,
}

// ReceiptStore saves uploaded receipts under <root>/receipts.
type ReceiptStore struct {
	root string
}

func NewReceiptStore(root string) (*ReceiptStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "receipts"), 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	return &ReceiptStore{root: root}, nil
}

// Save writes src under a generated name and returns the path relative to
// the uploads root, which is also its URL below /uploads.
func (s *ReceiptStore) Save(userID uuid.UUID, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !receiptExtensions[ext] {
		return "", fmt.Errorf("receipt must be an image or pdf, got %q: %w", ext, types.ErrValidation)
	}
	rel := filepath.ToSlash(filepath.Join("receipts", fmt.Sprintf("%s_%s%s", userID, uuid.NewString(), ext)))

	dst, err := os.Create(filepath.Join(s.root, rel))
	if err != nil {
		return "", fmt.Errorf("create receipt file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write receipt file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close receipt file: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored receipt. A missing file is not an error.
func (s *ReceiptStore) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
