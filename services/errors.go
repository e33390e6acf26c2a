package services

import (
	"errors"

	"github.com/camden-git/loreboardbackend/repository"
)

var (
	ErrEntityNotFound   = errors.New("entity not found")
	ErrAliasNotFound    = errors.New("alias not found")
	ErrDuplicateAlias   = repository.ErrDuplicateAlias
	ErrNameNotInContext = errors.New("name not found in selected text")
	ErrCommonWord       = errors.New("name is too common to track")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrValidation       = errors.New("validation failed")
	// ErrExtraction wraps any failure of the language model call or its answer.
	ErrExtraction = errors.New("attribute extraction failed")
)
