package discussion

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"polly/internal/config"
	"polly/internal/domain"
	discSvc "polly/internal/domain/services/discussion"
)

// validateAppendChild checks an inbound child append before any store work.
// Path syntax goes through the codec so a request can never smuggle labels
// the label scheme itself would not produce.
func validateAppendChild(req *discSvc.AppendChildRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ParentID, validation.By(requireIdentity)),
		validation.Field(&req.ParentSubtreeID, validation.Required, validation.By(requireSubtreeID)),
		validation.Field(&req.Pseudo,
			validation.Required,
			validation.Length(1, config.MaxPseudonymLength),
		),
		validation.Field(&req.Title, validation.Length(0, config.MaxTitleLength)),
		validation.Field(&req.Text,
			validation.Required,
			validation.Length(1, config.MaxCommentLength),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateRootText checks the text of a privileged root append.
func validateRootText(text string) error {
	err := validation.Validate(text,
		validation.Required,
		validation.Length(1, config.MaxCommentLength),
	)
	if err != nil {
		return fmt.Errorf("%w: text: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateIncrement checks a reputation adjustment request.
func validateIncrement(pseudo string, delta int64) error {
	err := validation.Validate(pseudo,
		validation.Required,
		validation.Length(1, config.MaxPseudonymLength),
	)
	if err != nil {
		return fmt.Errorf("%w: pseudo: %v", domain.ErrValidation, err)
	}
	if delta == 0 {
		return fmt.Errorf("%w: delta must be non-zero", domain.ErrValidation)
	}
	return nil
}

func requireIdentity(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return fmt.Errorf("required")
	}
	return nil
}

func requireSubtreeID(value interface{}) error {
	s, _ := value.(string)
	if _, err := PathLabels(s); err != nil {
		return err
	}
	return nil
}
