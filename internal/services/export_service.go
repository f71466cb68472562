package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/dormhub/dormitory-service/internal/models"
	"github.com/dormhub/dormitory-service/internal/repositories"
)

const rosterSheet = "Residents"

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

func (s *exportService) ExportRoster(ctx context.Context) (*excelize.File, error) {
	s.logger.Info("Building resident roster export")

	// Limit 0 means no pagination: the roster covers every user
	users, total, err := s.repo.User().ListWithProfiles(ctx, nil, repositories.UserFilters{
		SortBy:    "full_name",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load users for export: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{"Email", "Họ tên", "Vai trò", "Mã SV/NV", "Phòng", "Tòa nhà", "Trạng thái"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(rosterSheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, user := range users {
		values := []interface{}{
			user.Email,
			user.FullName,
			string(user.Role),
			codeOf(user),
			roomOf(user),
			buildingOf(user),
			statusOf(user),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(rosterSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(rosterSheet, "A", "B", 30); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	s.logger.Info("Resident roster export built", "rows", total)
	return f, nil
}

func codeOf(user *models.User) string {
	switch {
	case user.StudentProfile != nil:
		return user.StudentProfile.StudentCode
	case user.StaffProfile != nil:
		return user.StaffProfile.StaffCode
	default:
		return ""
	}
}

func roomOf(user *models.User) string {
	if user.StudentProfile != nil && user.StudentProfile.Room != nil {
		return user.StudentProfile.Room.Number
	}
	return ""
}

func buildingOf(user *models.User) string {
	if user.StudentProfile != nil && user.StudentProfile.Room != nil && user.StudentProfile.Room.Building != nil {
		return user.StudentProfile.Room.Building.Name
	}
	if user.StaffProfile != nil && user.StaffProfile.ManagedBuilding != nil {
		return user.StaffProfile.ManagedBuilding.Name
	}
	return ""
}

func statusOf(user *models.User) string {
	if user.IsActive {
		return "Đang hoạt động"
	}
	return "Ngừng hoạt động"
}
