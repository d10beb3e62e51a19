package processor

import (
	"context"

	"github.com/google/uuid"

	"comfybridge/internal/engine"
	"comfybridge/internal/pkg/errors"
	"comfybridge/internal/pkg/logger"
	"comfybridge/internal/ports"
)

type Deps struct {
	Engine  *engine.Client
	Monitor *engine.Monitor
	// Publish recibe los artifacts producidos. nil => inline base64.
	Publish ports.StorageProvider
	// Download resuelve inputs de tipo object_store_key. Puede ser nil.
	Download ports.StorageProvider
	Log      *logger.Logger
}

type Processor struct {
	engine  *engine.Client
	monitor *engine.Monitor
	log     *logger.Logger

	// Componentes internos
	inputHandler  *InputHandler
	outputHandler *OutputHandler
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("processor")

	return &Processor{
		engine:        d.Engine,
		monitor:       d.Monitor,
		log:           log,
		inputHandler:  NewInputHandler(d.Engine, d.Download, log),
		outputHandler: NewOutputHandler(d.Engine, d.Publish, log),
	}
}

// ProcessJob orquesta el flujo completo de un job: valida, sube inputs,
// encola el workflow, espera la señal de terminación por websocket,
// reconcilia contra el history y publica los artifacts. Todo fallo
// fatal se devuelve como error; los fallos por artifact quedan como
// warnings dentro del Result.
func (p *Processor) ProcessJob(ctx context.Context, jobID string, input any) (*Result, error) {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	// 1. Validar y parsear el input
	log.Debug("validating job input")
	job, err := ParseJob(jobID, input)
	if err != nil {
		return nil, err
	}

	// 2. Esperar a que el engine esté accesible
	log.Debug("probing engine readiness")
	if err := p.engine.WaitReady(ctx); err != nil {
		return nil, err
	}

	// 3. Subir inputs si los hay; cualquier item fallido es fatal
	if len(job.Media) > 0 {
		log.Info("uploading input media", "count", len(job.Media))
		report := p.inputHandler.UploadToEngine(ctx, job.Media)
		if !report.OK() {
			return nil, errors.New(errors.CodeUpload, "failed to upload one or more input media items").
				WithDetails(report.Errors...)
		}
	}

	// 4. Abrir el stream de eventos antes de encolar, para no perder
	// eventos entre el submit y la primera lectura
	clientID := uuid.NewString()
	session, err := p.monitor.Connect(ctx, clientID)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	// 5. Encolar el workflow
	promptID, err := p.engine.Submit(ctx, job.Workflow, clientID)
	if err != nil {
		return nil, err
	}
	ctx = logger.ContextWithPromptID(ctx, promptID)
	log = log.WithPromptID(promptID)
	log.Info("workflow queued")

	// 6. Esperar la señal terminal por websocket
	outcome, err := session.Await(ctx, promptID)
	if err != nil {
		return nil, err
	}
	// Un loop que sale sin señal de terminación ni error nunca es éxito
	if outcome.Incomplete() {
		return nil, errors.New(errors.CodeInternal,
			"event stream ended without a completion or error signal")
	}

	// 7. Reconciliar contra el history
	record, err := p.engine.History(ctx, promptID)
	if err != nil {
		// Preservar los errores de ejecución ya capturados como contexto
		var e *errors.Error
		if errors.As(err, &e) && len(outcome.ExecErrors) > 0 {
			return nil, e.WithDetails(outcome.ExecErrors...)
		}
		return nil, err
	}

	// 8. Publicar artifacts; fallos por artifact degradan a warning.
	// Un history sin outputs también queda registrado como warning.
	artifacts, warnings := p.outputHandler.Collect(ctx, jobID, record)
	if len(record.Outputs) == 0 {
		msg := "no outputs found in history for prompt " + promptID
		log.Warn(msg)
		warnings = append(warnings, msg)
	}
	warnings = append(outcome.ExecErrors, warnings...)

	// 9. Armar el resultado final
	if len(artifacts) == 0 {
		if len(warnings) > 0 {
			return nil, errors.New(errors.CodeExecution, "workflow produced no artifacts").
				WithDetails(warnings...)
		}
		log.Info("workflow completed without outputs")
		return &Result{Media: []PublishedArtifact{}, Status: StatusNoMedia}, nil
	}

	log.Info("job completed", "artifacts", len(artifacts), "warnings", len(warnings))
	return &Result{Media: artifacts, Errors: warnings}, nil
}
