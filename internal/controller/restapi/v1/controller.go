package v1

import (
	"github.com/agriflow/procurement/internal/usecase"
	"github.com/agriflow/procurement/pkg/logger"
)

type V1 struct {
	order     usecase.OrderUseCase
	inventory usecase.InventoryUseCase
	logger    logger.Interface
}
