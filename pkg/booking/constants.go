package booking

const (
	operationCreateReservation = "create_reservation"
	operationCreateSession     = "create_payment_session"
	operationConfirmPayment    = "confirm_payment"
	operationCancelReservation = "cancel_reservation"
	operationQuery             = "query"
	operationNotify            = "notify"

	operationStatusOK      = "ok"
	operationStatusError   = "error"
	operationStatusIgnored = "ignored"
	operationStatusNoop    = "noop"

	subjectCart        = "cart"
	subjectReservation = "reservation"
	subjectCatalog     = "catalog"
	subjectGateway     = "gateway"
	subjectEvent       = "event"
	subjectMetadata    = "metadata"

	codeInvalid   = "invalid"
	codeInsert    = "insert"
	codeLookup    = "lookup"
	codeMissing   = "missing"
	codeFinalized = "finalized"
	codeSession   = "session"
	codeSignature = "signature"
	codeParse     = "parse"
	codeTransit   = "transition"

	// MetadataKeyReservationIDs is the checkout metadata key carrying the reservation id list.
	MetadataKeyReservationIDs = "reservationIds"
	metadataDelimiter         = ","

	minorUnitsPerMajorUnit = 100
	defaultCurrency        = "eur"
	dateLayout             = "2006-01-02"
)
