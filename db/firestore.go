package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bantay/models"
	"bantay/tracking"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names match the documents the mobile app reads and writes.
const (
	reportsCollection   = "distressReports"
	countersCollection  = "incidentReportCounters"
	residentsCollection = "residents"
	staffCollection     = "staff"
	passwordsCollection = "staffPasswords"
	auditCollection     = "auditLogs"
)

var (
	// ErrProfileNotFound means the resident has not completed the user form yet.
	ErrProfileNotFound = errors.New("resident profile not found")
	// ErrReportNotFound means no report document matched the given ID.
	ErrReportNotFound = errors.New("report not found")
)

// FirestoreDB wraps the Firestore and Firebase Auth clients
type FirestoreDB struct {
	client *firestore.Client
	auth   *fbauth.Client
}

// NewFirestoreDB initializes the Firestore and Firebase Auth clients
func NewFirestoreDB(ctx context.Context, projectID, credentialsPath string) (*FirestoreDB, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase Auth client: %w", err)
	}

	log.Printf("✅ Connected to Firestore project: %s", projectID)

	return &FirestoreDB{
		client: client,
		auth:   authClient,
	}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// VerifyIDToken validates a Firebase Auth ID token and returns the resident
// identity it carries.
func (db *FirestoreDB) VerifyIDToken(ctx context.Context, idToken string) (*models.Identity, error) {
	token, err := db.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	identity := &models.Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}

// --- Report Operations ---

// firestoreCounterTxn adapts a live Firestore transaction to the allocator's
// counter view.
type firestoreCounterTxn struct {
	tx  *firestore.Transaction
	ref *firestore.DocumentRef
}

func (f firestoreCounterTxn) LastSequence(string) (int64, error) {
	snap, err := f.tx.Get(f.ref)
	if status.Code(err) == codes.NotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read daily counter: %w", err)
	}
	return counterValue(snap.Data()), nil
}

func (f firestoreCounterTxn) SetLastSequence(dateKey string, sequence int64) error {
	return f.tx.Set(f.ref, map[string]interface{}{
		"dateKey":      dateKey,
		"lastSequence": sequence,
		"updatedAt":    firestore.ServerTimestamp,
	}, firestore.MergeAll)
}

// SubmitReport allocates the next sequence for the report's dateKey and
// creates the report document, both inside one transaction: either the
// counter bump and the report commit together or neither does. The Firestore
// client retries the closure on write conflict, so concurrent submissions on
// the same day serialize without surfacing contention errors. On success the
// report's DocID, Sequence, ReportID and Status are filled in.
func (db *FirestoreDB) SubmitReport(ctx context.Context, report *models.IncidentReport) error {
	counterRef := db.client.Collection(countersCollection).Doc(report.DateKey)
	docRef := db.client.Collection(reportsCollection).NewDoc()

	var allocated int64
	err := db.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		sequence, err := nextSequence(firestoreCounterTxn{tx: tx, ref: counterRef}, report.DateKey)
		if err != nil {
			return err
		}
		allocated = sequence

		return tx.Create(docRef, map[string]interface{}{
			"uid":           report.UID,
			"email":         report.Email,
			"reportId":      models.FormatReportID(report.DateKey, sequence),
			"dateKey":       report.DateKey,
			"sequence":      sequence,
			"fullName":      report.FullName,
			"address":       report.Address,
			"contactNumber": report.ContactNumber,
			"report":        report.Report,
			"createdAt":     firestore.ServerTimestamp,
			"status":        string(models.StatusSubmitted),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to submit report: %w", err)
	}

	report.DocID = docRef.ID
	report.Sequence = allocated
	report.ReportID = models.FormatReportID(report.DateKey, allocated)
	report.Status = models.StatusSubmitted
	return nil
}

// GetUserReports retrieves the resident's reports as display rows, unsorted.
func (db *FirestoreDB) GetUserReports(ctx context.Context, uid string, loc *time.Location) ([]tracking.TrackedReport, error) {
	iter := db.client.Collection(reportsCollection).
		Where("uid", "==", uid).
		Documents(ctx)
	defer iter.Stop()

	var reports []tracking.TrackedReport
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate reports: %w", err)
		}
		reports = append(reports, tracking.FromDoc(doc.Ref.ID, doc.Data(), loc))
	}

	return reports, nil
}

// WatchUserReports opens a snapshot listener on the resident's reports and
// emits the full mapped result set on every change. The listener stops when
// ctx is canceled; a listener fault is sent on the error channel and ends
// the stream.
func (db *FirestoreDB) WatchUserReports(ctx context.Context, uid string, loc *time.Location) (<-chan []tracking.TrackedReport, <-chan error) {
	updates := make(chan []tracking.TrackedReport)
	errs := make(chan error, 1)

	query := db.client.Collection(reportsCollection).Where("uid", "==", uid)

	go func() {
		defer close(updates)

		snaps := query.Snapshots(ctx)
		defer snaps.Stop()

		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				errs <- fmt.Errorf("report listener failed: %w", err)
				return
			}

			var reports []tracking.TrackedReport
			for {
				doc, err := snap.Documents.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					errs <- fmt.Errorf("failed to iterate snapshot: %w", err)
					return
				}
				reports = append(reports, tracking.FromDoc(doc.Ref.ID, doc.Data(), loc))
			}

			select {
			case updates <- reports:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, errs
}

// GetAllReports retrieves every report for the staff views
func (db *FirestoreDB) GetAllReports(ctx context.Context) ([]models.IncidentReport, error) {
	iter := db.client.Collection(reportsCollection).Documents(ctx)
	defer iter.Stop()

	var reports []models.IncidentReport
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate reports: %w", err)
		}

		var report models.IncidentReport
		if err := doc.DataTo(&report); err != nil {
			log.Printf("Warning: failed to parse report %s: %v", doc.Ref.ID, err)
			continue
		}
		report.DocID = doc.Ref.ID
		reports = append(reports, report)
	}

	return reports, nil
}

// GetReportsSince retrieves reports created after a specific timestamp
func (db *FirestoreDB) GetReportsSince(ctx context.Context, since time.Time) ([]models.IncidentReport, error) {
	iter := db.client.Collection(reportsCollection).
		Where("createdAt", ">", since).
		Documents(ctx)
	defer iter.Stop()

	var reports []models.IncidentReport
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate reports: %w", err)
		}

		var report models.IncidentReport
		if err := doc.DataTo(&report); err != nil {
			log.Printf("Warning: failed to parse report %s: %v", doc.Ref.ID, err)
			continue
		}
		report.DocID = doc.Ref.ID
		reports = append(reports, report)
	}

	return reports, nil
}

// UpdateReportStatus sets the status of one report document
func (db *FirestoreDB) UpdateReportStatus(ctx context.Context, docID string, newStatus models.ReportStatus) error {
	ref := db.client.Collection(reportsCollection).Doc(docID)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "status", Value: string(newStatus)},
	})
	if status.Code(err) == codes.NotFound {
		return ErrReportNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}
	return nil
}

// --- Resident Profile Operations ---

// GetResidentProfile retrieves a resident's saved profile
func (db *FirestoreDB) GetResidentProfile(ctx context.Context, uid string) (*models.ResidentProfile, error) {
	doc, err := db.client.Collection(residentsCollection).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resident profile: %w", err)
	}

	var profile models.ResidentProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse resident profile: %w", err)
	}

	return &profile, nil
}

// SaveResidentProfile upserts a resident's profile with merge semantics,
// leaving fields the payload does not carry untouched.
func (db *FirestoreDB) SaveResidentProfile(ctx context.Context, identity *models.Identity, form models.ProfileForm) error {
	var email *string
	if identity.Email != "" {
		email = &identity.Email
	}

	_, err := db.client.Collection(residentsCollection).Doc(identity.UID).Set(ctx, map[string]interface{}{
		"uid":              identity.UID,
		"email":            email,
		"firstName":        form.FirstName,
		"middleInitial":    form.MiddleInitial,
		"lastName":         form.LastName,
		"address":          form.Address,
		"contactNumber":    form.ContactNumber,
		"emergencyContact": form.EmergencyContact,
		"updatedAt":        firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to save resident profile: %w", err)
	}
	return nil
}

// --- Staff Operations ---

// CreateStaff creates a new staff account
func (db *FirestoreDB) CreateStaff(ctx context.Context, user *models.StaffUser) error {
	_, err := db.client.Collection(staffCollection).Doc(user.UserID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create staff user: %w", err)
	}
	return nil
}

// GetStaff retrieves a staff account by ID
func (db *FirestoreDB) GetStaff(ctx context.Context, userID string) (*models.StaffUser, error) {
	doc, err := db.client.Collection(staffCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff user: %w", err)
	}

	var user models.StaffUser
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse staff user: %w", err)
	}

	return &user, nil
}

// GetStaffByUsername retrieves a staff account by username
func (db *FirestoreDB) GetStaffByUsername(ctx context.Context, username string) (*models.StaffUser, error) {
	iter := db.client.Collection(staffCollection).
		Where("username", "==", username).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("staff user not found: %s", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff user: %w", err)
	}

	var user models.StaffUser
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse staff user: %w", err)
	}

	return &user, nil
}

// UpdateStaff updates an existing staff account
func (db *FirestoreDB) UpdateStaff(ctx context.Context, user *models.StaffUser) error {
	_, err := db.client.Collection(staffCollection).Doc(user.UserID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update staff user: %w", err)
	}
	return nil
}

// --- Password Operations ---

// StorePasswordHash stores a password hash for a staff account
func (db *FirestoreDB) StorePasswordHash(ctx context.Context, userID, passwordHash string) error {
	_, err := db.client.Collection(passwordsCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"user_id":       userID,
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

// GetPasswordHash retrieves a password hash for a staff account
func (db *FirestoreDB) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	doc, err := db.client.Collection(passwordsCollection).Doc(userID).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}

	data := doc.Data()
	if hash, ok := data["password_hash"].(string); ok {
		return hash, nil
	}

	return "", fmt.Errorf("password hash not found for user: %s", userID)
}

// --- Audit Operations ---

// LogAudit records a staff action. Audit failures are logged, never fatal.
func (db *FirestoreDB) LogAudit(ctx context.Context, userID, action, details string) {
	entry := models.AuditLog{
		LogID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Action:    action,
		Details:   details,
	}

	if _, err := db.client.Collection(auditCollection).Doc(entry.LogID).Set(ctx, entry); err != nil {
		log.Printf("Warning: failed to write audit log: %v", err)
		return
	}
	log.Printf("AUDIT: User '%s' performed action '%s' - Details: %s", userID, action, details)
}
