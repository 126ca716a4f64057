package container

import (
	"database/sql"
	"log"

	auditLogRepo "stockledger/internal/auditlog"
	"stockledger/internal/integrations/googlesheets"
	"stockledger/internal/inventory/allocations"
	"stockledger/internal/inventory/assets"
	"stockledger/internal/inventory/deletions"
	"stockledger/internal/inventory/issues"
	"stockledger/internal/repository"
	"stockledger/internal/users"
	"stockledger/internal/warehouses"
	"stockledger/pkg/auditlog"
	"stockledger/pkg/security"
)

type Container struct {
	Repository          *repository.Repository
	AuditLog            *auditlog.Auditlog
	LoginHandler        *security.LoginHandler
	AssetHandler        *assets.AssetHandler
	AllocationHandler   *allocations.AllocationHandler
	AllocationService   *allocations.AllocationService
	IssueHandler        *issues.IssueHandler
	DeletionHandler     *deletions.DeletionHandler
	WarehouseHandler    *warehouses.WarehouseHandler
	UserHandler         *users.UsersHandler
	GoogleSheetsHandler *googlesheets.GoogleSheetsHandler
}

func NewAppContainer(db *sql.DB) *Container {
	repo := repository.NewRepository(db)
	logStore := auditLogRepo.NewRepository(repo)
	auditLog := auditlog.NewAuditLog(logStore)

	assetRepo := assets.NewRepository(repo)
	assetService := assets.NewAssetService(assetRepo, repo)
	assetHandler := assets.NewAssetHandler(assetRepo, assetService, logStore, auditLog)

	allocationRepo := allocations.NewRepository(repo)
	allocationService := allocations.NewAllocationService(allocationRepo, assetRepo, repo)
	allocationHandler := allocations.NewAllocationHandler(allocationRepo, allocationService, auditLog)

	issueRepo := issues.NewRepository(repo)
	issueService := issues.NewIssueService(issueRepo, assetRepo, repo)
	issueHandler := issues.NewIssueHandler(issueRepo, issueService, auditLog)

	deletionRepo := deletions.NewRepository(repo)
	deletionService := deletions.NewDeletionService(deletionRepo, assetRepo, repo)
	deletionHandler := deletions.NewDeletionHandler(deletionRepo, deletionService, auditLog)

	warehouseRepo := warehouses.NewWarehouseRepository(repo)
	warehouseHandler := warehouses.NewWarehouseHandler(warehouseRepo)

	userRepo := users.NewRepository(repo)
	userHandler := users.NewHandler(userRepo)

	loginHandler := security.NewLoginHandler(repo)

	// The sheets integration is optional; without credentials the rest of
	// the service runs fine.
	var sheetsHandler *googlesheets.GoogleSheetsHandler
	if sheetsService, err := googlesheets.NewSheetsService(); err != nil {
		log.Printf("Google Sheets integration disabled: %v", err)
	} else {
		sheetsHandler = googlesheets.NewGoogleSheetsHandler(sheetsService, assetRepo)
	}

	return &Container{
		Repository:          repo,
		AuditLog:            auditLog,
		LoginHandler:        loginHandler,
		AssetHandler:        assetHandler,
		AllocationHandler:   allocationHandler,
		AllocationService:   allocationService,
		IssueHandler:        issueHandler,
		DeletionHandler:     deletionHandler,
		WarehouseHandler:    warehouseHandler,
		UserHandler:         userHandler,
		GoogleSheetsHandler: sheetsHandler,
	}
}
