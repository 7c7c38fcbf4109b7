package operation

import (
	"github.com/erfajc97/anko-back/internal/api/v1/dto"
	"github.com/erfajc97/anko-back/internal/model"
)

// Teachers

type CreateTeacherInput struct {
	Body dto.TeacherDTO `json:"body"`
}

type TeacherOutput struct {
	Body model.Teacher `json:"body"`
}

type ListTeachersInput struct{}

type ListTeachersOutput struct {
	Body []model.Teacher `json:"body"`
}

type UpdateTeacherInput struct {
	ID   string         `path:"id" format:"uuid" doc:"Teacher ID"`
	Body dto.TeacherDTO `json:"body"`
}

// Class packages

type CreatePackageInput struct {
	Body dto.PackageCreateDTO `json:"body"`
}

type PackageOutput struct {
	Body model.ClassPackage `json:"body"`
}

type ListPackagesInput struct{}

type ListPackagesOutput struct {
	Body []model.ClassPackage `json:"body"`
}

type UpdatePackageInput struct {
	ID   string               `path:"id" format:"uuid" doc:"Class package ID"`
	Body dto.PackageUpdateDTO `json:"body"`
}

// User packages

type AssignPackageInput struct {
	Body dto.AssignPackageDTO `json:"body"`
}

type UserPackageOutput struct {
	Body model.UserPackage `json:"body"`
}

type ListUserPackagesInput struct {
	PageInput
}

type ListUserPackagesOutput struct {
	Body model.Page[model.UserPackage] `json:"body"`
}

type MyPackagesInput struct{}

type MyPackagesOutput struct {
	Body []model.UserPackage `json:"body"`
}

type AvailableCreditsOutput struct {
	Body model.AvailableCredits `json:"body"`
}

type UpdateUserPackageInput struct {
	ID   string                   `path:"id" format:"uuid" doc:"User package ID"`
	Body dto.UserPackageUpdateDTO `json:"body"`
}
