package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateStruct[T any](data T) error {
	if err := validate.Struct(data); err != nil {
		Logger.Debug().Err(err).Msg("validation failed")
		return err
	}
	return nil
}

func UnmarshalAndValidate[T any](r *gin.Context, data *T) (err error) {
	if r.Request.Method == "POST" {
		err = r.ShouldBindBodyWith(data, binding.JSON)
	} else {
		err = r.ShouldBindQuery(data)
	}

	if err != nil {
		Logger.Error().Err(err).Msg("")
		return
	}

	return ValidateStruct(*data)
}
