package service

import (
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"procurement/models"
)

// BidService owns bid evaluation: the line-item ledger, the bid state
// machine, scoring, ranking and the comparison export.
type BidService struct {
	store    BidStorage
	log      *logrus.Logger
	validate *validator.Validate
}

func NewBidService(store BidStorage, log *logrus.Logger) *BidService {
	return &BidService{store: store, log: log, validate: validator.New()}
}

// TakeoffService owns quantity takeoff: measurements, layers, unit
// conversion, duplication and the takeoff export.
type TakeoffService struct {
	store    TakeoffStorage
	log      *logrus.Logger
	validate *validator.Validate
}

func NewTakeoffService(store TakeoffStorage, log *logrus.Logger) *TakeoffService {
	return &TakeoffService{store: store, log: log, validate: validator.New()}
}

// asNotFound maps the storage layer's sql.ErrNoRows into the error taxonomy.
func asNotFound(err error, entity string, id int) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewNotFoundError(entity, id)
	}
	return err
}

func checkInput(v *validator.Validate, input any) error {
	if err := v.Struct(input); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}
