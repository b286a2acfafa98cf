package dto

import (
	"errors"
	"strings"
)

// MAX_OCR_TEXT_LENGTH bounds the badge text accepted from the scanner
const MAX_OCR_TEXT_LENGTH = 4096

// BadgeLoginRequest carries the text recognized on a scanned badge
type BadgeLoginRequest struct {
	OCRText string `json:"ocr_text" binding:"required"`
}

// Validate validates the request
func (r *BadgeLoginRequest) Validate() error {
	if strings.TrimSpace(r.OCRText) == "" {
		return errors.New("ocr_text must not be blank")
	}
	if len(r.OCRText) > MAX_OCR_TEXT_LENGTH {
		return errors.New("ocr_text is too long")
	}
	return nil
}

// CodeLoginRequest carries a typed employee code
type CodeLoginRequest struct {
	Code string `json:"code" binding:"required"`
}

// Validate validates the request
func (r *CodeLoginRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return errors.New("code must not be blank")
	}
	return nil
}
