package volume

// Instructions shared by every volume of the regulation. Each one produces
// its own output file.
var sharedPrompts = []Prompt{
	{
		ID:    "prompt_1",
		Topic: "flujogramaTerrPublicos",
		Instruction: "Establece una guía de referencia con flujograma a la luz del Reglamento Conjunto vigente sobre los trámites y requerimientos " +
			"en el proceso de evaluación de transacciones de terrenos públicos por parte de la Junta de Planificación. " +
			"Sé claro y organiza los pasos en forma lógica.",
	},
	{
		ID:    "prompt_2",
		Topic: "flujogramaCambiosCalificacion",
		Instruction: "Establecer una guía de referencia con flujograma a la luz del Reglamento Conjunto vigente referente a los trámites y " +
			"requerimientos para la evaluación de cambios de calificación directo por parte de la Junta de Planificación.",
	},
	{
		ID:    "prompt_3",
		Topic: "flujogramaSitiosHistoricos",
		Instruction: "Establecer una guía de referencia con flujograma a la luz del Reglamento Conjunto vigente referente a los trámites y " +
			"requerimientos para la evaluación de Sitios Históricos por parte de la Junta de Planificación.",
	},
	{
		ID:          "prompt_4",
		Topic:       "TablaCabida",
		Instruction: "Creación de una tabla donde se ilustren las columnas sobre cabida mínima y cabida máxima permitida para cada distrito de calificación.",
	},
	{
		ID:          "prompt_5",
		Topic:       "Resoluciones",
		Instruction: "Crear lista de Resoluciones de la JP por temas y año en que se suscribieron, para facilitar búsqueda de información.",
	},
}

const answersTopic = "Respuestas"

// Volume-specific question lists, keyed by volume ID.
var volumeQuestions = map[string]string{
	"Tomo_1": "6. Contestar las siguientes preguntas: Qué función tiene la División de Cumplimiento Ambiental? " +
		"¿Cómo interaccionan otros Reglamentos con el Reglamento Conjunto?",

	"Tomo_2": " Contestar las siguientes preguntas: ¿Cuáles son las disposiciones generales más importantes?\n" +
		"2.    ¿Cuál es el alcance de este tomo?\n" +
		"3.    Como se aplica la Ley 38-2017 LPAU\n" +
		"4.    Resuma los servicios y tramites\n" +
		"5.    Qué clases de solicitudes hay\n" +
		"6.    Favor distinguir entre procesos adjudicativos y procesos cuasi-legislativos\n" +
		"7.    Cuando se requieren vistas públicas\n" +
		"8.    Qué es un asunto ministerial, y como se tramita\n" +
		"9.    Cuantas clases de notificaciones hay\n" +
		"10.   Solicitudes de carácter discrecional, que es, y como se tramitan\n" +
		"11.   ¿Cuántos elementos y requisitos para aprobar una determinación final hay?\n",

	"Tomo_3": `¿Qué es un permiso para desarrollo y negocios?
    ¿Qué requisitos tiene?
    ¿Cómo se tramita?
    ¿Cuándo una determinación final es un proceso adjudicativo, según la Ley 38-2017 LPAU?
    ¿Cuántos permisos hay en este tomo? Señalar diferencias en requisitos.
    ¿Qué es un permiso de medio ambiente? ¿Cuántos hay? Requisitos y cómo se tramitan.`,

	"Tomo_4": "Contestar las siguientes preguntas:\n" +
		"1. ¿Cuántas licencias y certificaciones hay?\n" +
		"2. ¿Qué requisitos tienen?\n" +
		"3. ¿Cómo se tramitan?\n" +
		"4. ¿Qué negocios y operaciones requieren estas licencias y certificaciones?",

	"Tomo_5": "Contestar las siguientes preguntas:\n" +
		"1. ¿Qué es un proyecto de urbanización?\n" +
		"2. ¿Qué es un proyecto de lotificación?\n" +
		"3. ¿Cómo se utilizan las clasificaciones en estos trámites?\n" +
		"4. ¿Cómo se utilizan las calificaciones?\n" +
		"5. ¿Cuántas agencias y trámites se requieren para estos proyectos?",

	"Tomo_6": "Contestar las siguientes preguntas:\n" +
		"1. ¿Qué es una equivalencia?\n" +
		"2. ¿Cuántas clasificaciones hay?\n" +
		"3. ¿Cuántas calificaciones son similares y se pueden consolidar?\n" +
		"4. ¿Cuántos planes especiales hay y qué requisitos tienen?\n" +
		"5. ¿Cuántas calificaciones de conservación hay?\n" +
		"6. Correlacionar las calificaciones de conservación y consolidar en menos.\n" +
		"7. ¿Qué es un parámetro de diseño, cómo se utilizan?\n" +
		"8. ¿Cuántas prohibiciones tienen las calificaciones?\n" +
		"9. ¿Cómo interactúa el plan de uso de terrenos?\n" +
		"10. ¿Cuántos procesos ambientales se utilizan en las calificaciones?\n" +
		"11. ¿Qué certificaciones de agencia se requieren para las calificaciones?",

	"Tomo_7": "Contestar las siguientes preguntas:\n" +
		"1. ¿Cuántos procesos tiene la Junta de Planificación?\n" +
		"2. ¿Qué requisitos tienen estos trámites?\n" +
		"3. ¿Cómo se debe delimitar la Zona Costanera?",

	"Tomo_8": "Contestar las siguientes preguntas:\n" +
		"1. ¿Qué está sujeto a los parámetros de edificabilidad?\n" +
		"2. ¿Cuántos parámetros de edificabilidad hay?\n" +
		"3. ¿Cómo aplican estos parámetros en los distritos de calificación?\n" +
		"4. Otros trámites en este tomo",

	"Tomo_9": "Contestar las siguientes preguntas:\n" +
		"1. ¿Qué son obras de infraestructura?\n" +
		"2. ¿Cuántos trámites de infraestructura hay?\n" +
		"3. Describir energía, acueductos y alcantarillados.\n" +
		"4. ¿Qué recomendaciones se requieren en todos los procesos de este tomo?\n" +
		"5. ¿Plan vial y acceso a vías, cómo se aprueban otros trámites en este tomo?",

	"Tomo_10": "Contestar las siguientes preguntas:\n" +
		"1. ¿Qué es una zona o sitio histórico?\n" +
		"2. ¿Cómo se nomina y se declara?\n" +
		"3. ¿Qué restricciones presentan estos distritos?",

	"Tomo_11": "Resume el contenido del Tomo 11\n" +
		"1. Resumir detalladamente",
}

// Instruction for the single-prompt summary plan.
var summaryPrompt = Prompt{
	ID:          "summary",
	Topic:       "Resumen",
	Instruction: "Resume detalladamente el siguiente fragmento del Reglamento Conjunto vigente, destacando trámites, requisitos y definiciones.",
}
