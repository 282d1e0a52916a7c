package conversation

// UI texts in Russian
const (
	helpText = "👋 Я бот-напоминалка.\n\n" +
		"Присылаю ваш текст в этот чат в заданное время: каждый день или по выбранным дням недели.\n\n" +
		"/add — добавить напоминание\n" +
		"/remove — удалить напоминание\n" +
		"/list — список напоминаний\n" +
		"/cancel — отменить ввод\n" +
		"/help — эта справка"

	askAddText = "Отправьте время и текст в формате ЧЧ:ММ текст\nНапример: 09:30 Планёрка"
	badAddText = "Неверный формат. Нужно ЧЧ:ММ текст, например: 18:00 Подвести итоги.\nПопробуйте ещё раз или /cancel."
	askDays    = "По каким дням напоминать?\n" +
		"• все — каждый день\n" +
		"• пн-пт — диапазон (можно через выходные: пт-пн)\n" +
		"• пн, ср, пт — перечисление"
	badDays = "Не понял дни. Пример: пн-пт или сб, вс. Попробуйте ещё раз или /cancel."

	askRemoveTime = "Какое напоминание удалить? Отправьте время в формате ЧЧ:ММ."
	badRemoveTime = "Неверный формат времени. Нужно ЧЧ:ММ, например: 09:30.\nПопробуйте ещё раз или /cancel."

	addedFmt    = "✅ Напоминание на %s (%s) сохранено:\n%s"
	removedFmt  = "🗑 Напоминание на %s удалено."
	notFoundFmt = "Напоминание на %s не найдено."

	listTitle   = "🧾 Ваши напоминания:"
	listItemFmt = "\n• %s (%s) %s"
	listEmpty   = "Напоминаний пока нет. Добавьте первое: /add"

	cancelled      = "Ввод отменён."
	unknownCommand = "Неизвестная команда. Список команд: /help"
	storageFailure = "Не удалось сохранить изменения. Попробуйте позже."
	readFailure    = "Не удалось прочитать напоминания. Попробуйте позже."
)
